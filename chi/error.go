package chi

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/propsheet/propsheet"
)

// codes maps application error codes to HTTP status codes.
var codes = map[string]int{
	propsheet.EINVALID:      http.StatusBadRequest,
	propsheet.EUNSUPPORTED:  http.StatusBadRequest,
	propsheet.ETOOLARGE:     http.StatusBadRequest,
	propsheet.ENOCREDITS:    http.StatusBadRequest,
	propsheet.EUNAUTHORIZED: http.StatusUnauthorized,
	propsheet.ENOTFOUND:     http.StatusNotFound,
	propsheet.EFETCH:        http.StatusInternalServerError,
	propsheet.ETIMEOUT:      http.StatusInternalServerError,
	propsheet.EINTERNAL:     http.StatusInternalServerError,
}

// ErrorStatusCode returns the HTTP status code for an application error code.
func ErrorStatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error writes err as a JSON error response. Internal errors are logged
// and their details withheld from the client.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	code, message := propsheet.ErrorCode(err), propsheet.ErrorMessage(err)
	status := ErrorStatusCode(code)

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
	}

	var nc *propsheet.InsufficientCreditsError
	if errors.As(err, &nc) {
		code = nc.Code()
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message, Code: code})
}
