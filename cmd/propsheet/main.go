package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/propsheet/propsheet"
	pschi "github.com/propsheet/propsheet/chi"
	"github.com/propsheet/propsheet/dewatermark"
	"github.com/propsheet/propsheet/fs"
	"github.com/propsheet/propsheet/gcs"
	"github.com/propsheet/propsheet/goquery"
	"github.com/propsheet/propsheet/htmltomarkdown"
	pshttp "github.com/propsheet/propsheet/http"
	"github.com/propsheet/propsheet/ingest"
	"github.com/propsheet/propsheet/ledger"
	"github.com/propsheet/propsheet/prometheus"
	"github.com/propsheet/propsheet/redis"
	"github.com/propsheet/propsheet/rod"
	"github.com/propsheet/propsheet/scrape"
	pslog "github.com/propsheet/propsheet/slog"
	"github.com/propsheet/propsheet/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path used when neither --db nor PROPSHEET_DB is set.
	DBPath string

	// EnvFiles are loaded into the environment before flags are parsed.
	// Missing files are ignored.
	EnvFiles []string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	closers []func() error
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:   defaultDBPath(),
		EnvFiles: []string{".env"},
	}
}

// Close releases every resource opened by Run.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i]())
	}
	m.closers = nil
	if m.DB != nil {
		errs = append(errs, m.DB.Close())
		m.DB = nil
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if err := loadEnvFiles(m.EnvFiles...); err != nil {
		return err
	}

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("propsheet"),
		kong.Description("Turn real-estate listing pages into property records with hosted galleries"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'propsheet --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = newLogger(stderr, cli.LogFormat, cli.LogLevel)
	deps.Service = &scrape.Service{Logger: deps.Logger}
	defer m.Close()

	cmd := strings.Fields(kongCtx.Command())[0]
	if err := m.wire(ctx, cmd, cli, deps); err != nil {
		return err
	}

	return kongCtx.Run(deps)
}

// wire builds only the collaborators cmd needs.
func (m *Main) wire(ctx context.Context, cmd string, cli *CLI, deps *Dependencies) error {
	svc, logger := deps.Service, deps.Logger

	var metrics *prometheus.Metrics
	var reg *promclient.Registry
	if cmd == "serve" {
		reg = promclient.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = prometheus.NewMetrics(reg)
	}

	switch cmd {
	case "sources", "extract", "serve":
		registry, err := m.registry(cli, logger, metrics)
		if err != nil {
			return err
		}
		svc.Registry = registry
		svc.Converter = htmltomarkdown.NewConverter()
		if cmd != "sources" {
			svc.Cache = m.cache(ctx, cli, logger, metrics)
		}
	}

	if cmd == "ingest" || cmd == "serve" {
		ingester, err := m.ingester(ctx, cli, logger)
		if err != nil {
			return err
		}
		svc.Ingester = ingester
		if metrics != nil {
			svc.Ingester = prometheus.NewImageIngester(ingester, metrics)
		}
	}

	if cmd == "serve" || cmd == "expire" {
		if err := m.openDB(cli, deps.Stderr); err != nil {
			return err
		}
		svc.Accounts = sqlite.NewAccountService(m.DB)
		svc.Listings = sqlite.NewListingService(m.DB)

		mode, err := ledger.ParseMode(cli.LedgerMode)
		if err != nil {
			return err
		}
		var gate propsheet.CreditLedger = ledger.NewGate(svc.Accounts, mode)
		if metrics != nil {
			gate = prometheus.NewCreditLedger(gate, metrics)
		}
		svc.Ledger = gate
	}

	if cmd == "serve" {
		deps.Handler = pschi.NewServer(svc,
			pschi.WithAccountHeader(cli.Serve.AccountHeader),
			pschi.WithRateLimit(cli.Serve.RateLimit),
			pschi.WithTimeout(cli.Serve.Timeout),
			pschi.WithMetrics(metrics, reg),
			pschi.WithLogger(logger),
		).Handler()
	}
	return nil
}

func (m *Main) openDB(cli *CLI, stderr io.Writer) error {
	path := cli.DB
	if path == "" {
		path = m.DBPath
	}
	m.DB = sqlite.NewDB(path)
	if err := m.DB.Open(); err != nil {
		m.DB = nil
		fmt.Fprintf(stderr, "Hint: Set PROPSHEET_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	return nil
}

func (m *Main) registry(cli *CLI, logger *slog.Logger, metrics *prometheus.Metrics) (propsheet.SourceRegistry, error) {
	static := pshttp.NewFetcher(pshttp.WithTimeout(cli.FetchTimeout))
	rendered := rod.NewFetcher(
		rod.WithRenderTimeout(cli.RenderTimeout),
		rod.WithBrowserBin(cli.BrowserBin),
	)
	m.closers = append(m.closers, static.Close, rendered.Close)

	fetchers := goquery.Fetchers{
		Static:   pslog.NewLoggingFetcher(static, logger),
		Rendered: pslog.NewLoggingFetcher(rendered, logger),
	}
	if metrics != nil {
		fetchers.Static = prometheus.NewFetcher(fetchers.Static, "static", metrics)
		fetchers.Rendered = prometheus.NewFetcher(fetchers.Rendered, "rendered", metrics)
	}

	registry := goquery.NewRegistry()
	if err := goquery.RegisterDefaults(registry, fetchers, logger); err != nil {
		return nil, fmt.Errorf("failed to register sources: %w", err)
	}
	return pslog.NewLoggingRegistry(registry, logger), nil
}

// cache connects to Redis when configured. An unreachable server disables
// caching rather than failing startup.
func (m *Main) cache(ctx context.Context, cli *CLI, logger *slog.Logger, metrics *prometheus.Metrics) propsheet.RecordCache {
	if cli.RedisAddr == "" {
		return nil
	}
	client, err := redis.Open(ctx, cli.RedisAddr, cli.RedisPassword, cli.RedisDB)
	if err != nil {
		logger.Warn("record cache disabled", "addr", cli.RedisAddr, "err", err)
		return nil
	}
	m.closers = append(m.closers, client.Close)

	var cache propsheet.RecordCache = redis.NewCache(client, cli.CacheTTL)
	if metrics != nil {
		cache = prometheus.NewRecordCache(cache, metrics)
	}
	return cache
}

func (m *Main) ingester(ctx context.Context, cli *CLI, logger *slog.Logger) (*ingest.Pipeline, error) {
	var limiter propsheet.HostLimiter
	switch {
	case cli.ImageRate < 0:
		return nil, fmt.Errorf("image rate must not be negative, got %v", cli.ImageRate)
	case cli.ImageRate > 0:
		limiter = ingest.NewHostLimiter(cli.ImageRate, cli.ImageConcurrency)
	}

	var storage propsheet.ObjectStorage
	switch {
	case cli.StorageBucket != "":
		client, err := gcs.Open(ctx)
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, client.Close)
		storage = gcs.NewStorage(client, cli.StorageBucket)
	case cli.StorageDir != "":
		storage = fs.NewStorage(cli.StorageDir, cli.StoragePublicURL)
	default:
		return nil, fmt.Errorf("no image storage configured: set STORAGE_BUCKET or STORAGE_DIR")
	}

	var cleaner propsheet.ImageCleaner
	if cli.DewatermarkEnabled {
		if cli.DewatermarkAPIURL == "" || cli.DewatermarkAPIKey == "" {
			return nil, fmt.Errorf("DEWATERMARK_API_URL and DEWATERMARK_API_KEY are required when DEWATERMARK_ENABLED is set")
		}
		cleaner = pslog.NewLoggingImageCleaner(
			dewatermark.NewClient(cli.DewatermarkAPIURL, cli.DewatermarkAPIKey, dewatermark.WithLogger(logger)),
			logger,
		)
	}

	images := pshttp.NewFetcher(pshttp.WithTimeout(cli.FetchTimeout))
	m.closers = append(m.closers, images.Close)

	return &ingest.Pipeline{
		Fetcher:     pslog.NewLoggingBlobFetcher(images, logger),
		Storage:     pslog.NewLoggingObjectStorage(storage, logger),
		Cleaner:     cleaner,
		Limiter:     limiter,
		MaxImages:   cli.MaxImages,
		Concurrency: cli.ImageConcurrency,
		RetryDelays: []time.Duration{500 * time.Millisecond, 2 * time.Second},
		Logger:      logger,
	}, nil
}

func newLogger(w io.Writer, format, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func loadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "propsheet.db"
	}
	dir := filepath.Join(home, ".propsheet")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "propsheet.db")
}
