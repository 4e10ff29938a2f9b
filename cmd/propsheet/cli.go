package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/propsheet/propsheet/scrape"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Service *scrape.Service
	Handler http.Handler
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB        string `name:"db" env:"PROPSHEET_DB" help:"SQLite database path"`
	LogFormat string `name:"log-format" enum:"text,json" default:"text" env:"PROPSHEET_LOG_FORMAT" help:"Log format (text or json)"`
	LogLevel  string `name:"log-level" enum:"debug,info,warn,error" default:"info" env:"PROPSHEET_LOG_LEVEL" help:"Minimum log level"`

	FetchTimeout  time.Duration `default:"10s" env:"PROPSHEET_FETCH_TIMEOUT" group:"Fetch" help:"Timeout for static page and image requests"`
	RenderTimeout time.Duration `default:"60s" env:"PROPSHEET_RENDER_TIMEOUT" group:"Fetch" help:"Time a rendered page may take to settle"`
	BrowserBin    string        `env:"PROPSHEET_BROWSER_BIN" group:"Fetch" help:"Chrome binary used for rendered pages"`

	MaxImages        int     `default:"5" env:"PROPSHEET_MAX_IMAGES" group:"Images" help:"Largest gallery accepted for ingestion"`
	ImageConcurrency int     `default:"4" env:"PROPSHEET_IMAGE_CONCURRENCY" group:"Images" help:"Images processed at the same time"`
	ImageRate        float64 `default:"4" env:"PROPSHEET_IMAGE_RPS" group:"Images" help:"Image requests per second per host (0 disables throttling)"`

	LedgerMode string `default:"atomic" enum:"atomic,check-then-debit" env:"PROPSHEET_LEDGER_MODE" group:"Credits" help:"How credits are debited (atomic or check-then-debit)"`

	StorageBucket    string `env:"STORAGE_BUCKET" group:"Storage" help:"Google Cloud Storage bucket for hosted images"`
	StorageDir       string `env:"STORAGE_DIR" group:"Storage" help:"Local directory for hosted images when no bucket is set"`
	StoragePublicURL string `env:"STORAGE_PUBLIC_URL" group:"Storage" help:"Base URL serving STORAGE_DIR"`

	DewatermarkEnabled bool   `env:"DEWATERMARK_ENABLED" group:"Watermark" help:"Remove watermarks before upload"`
	DewatermarkAPIURL  string `env:"DEWATERMARK_API_URL" group:"Watermark" help:"Watermark removal endpoint"`
	DewatermarkAPIKey  string `env:"DEWATERMARK_API_KEY" group:"Watermark" help:"Watermark removal API key"`

	RedisAddr     string        `env:"REDIS_ADDR" group:"Cache" help:"Redis address for the extraction cache (disabled when empty)"`
	RedisPassword string        `env:"REDIS_PASSWORD" group:"Cache" help:"Redis password"`
	RedisDB       int           `default:"0" env:"REDIS_DB" group:"Cache" help:"Redis database number"`
	CacheTTL      time.Duration `default:"1h" env:"CACHE_TTL" group:"Cache" help:"How long extracted records are cached"`

	Extract ExtractCmd `cmd:"" help:"Extract a listing page into a property record"`
	Sources SourcesCmd `cmd:"" help:"List supported listing sources"`
	Ingest  IngestCmd  `cmd:"" help:"Copy images into hosted storage"`
	Serve   ServeCmd   `cmd:"" help:"Run the HTTP API"`
	Expire  ExpireCmd  `cmd:"" help:"Move accounts with expired plans back to the free plan"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	URL string `arg:"" help:"Listing URL"`
}

// SourcesCmd is the "sources" subcommand.
type SourcesCmd struct{}

// IngestCmd is the "ingest" subcommand.
type IngestCmd struct {
	Key  string   `arg:"" help:"Destination key (storage prefix)"`
	URLs []string `arg:"" name:"url" help:"Image URLs"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr          string        `default:":8080" env:"PROPSHEET_ADDR" help:"Listen address"`
	AccountHeader string        `default:"X-Account-ID" env:"ACCOUNT_HEADER" help:"Header carrying the verified account id"`
	RateLimit     int           `default:"100" env:"PROPSHEET_RATE_LIMIT" help:"Requests per minute per client IP (0 disables)"`
	Timeout       time.Duration `default:"90s" env:"PROPSHEET_REQUEST_TIMEOUT" help:"Per-request timeout"`
}

// ExpireCmd is the "expire" subcommand.
type ExpireCmd struct {
	DryRun bool `help:"Only list accounts whose plan expired"`
}
