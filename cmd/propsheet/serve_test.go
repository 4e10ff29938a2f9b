package main_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	main "github.com/propsheet/propsheet/cmd/propsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("stops when context is cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		deps := &main.Dependencies{
			Ctx:     ctx,
			Stdout:  io.Discard,
			Stderr:  io.Discard,
			Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
			Handler: handler,
		}

		done := make(chan error, 1)
		go func() {
			done <- (&main.ServeCmd{Addr: "127.0.0.1:0"}).Run(deps)
		}()

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
	})

	t.Run("fails on unusable address", func(t *testing.T) {
		t.Parallel()

		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		}

		err := (&main.ServeCmd{Addr: "not-an-address"}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to listen")
	})
}
