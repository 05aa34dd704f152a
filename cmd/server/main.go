package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/cdrintake/internal/api"
	"github.com/kiliankoe/cdrintake/internal/config"
	"github.com/kiliankoe/cdrintake/internal/delivery"
	"github.com/kiliankoe/cdrintake/internal/intake"
	"github.com/kiliankoe/cdrintake/internal/relay/webhook"
	"github.com/kiliankoe/cdrintake/internal/store"
	"github.com/kiliankoe/cdrintake/internal/ws"
	staticserver "github.com/kiliankoe/cdrintake/static"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
)

const version = "v1.0.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`cdrintake - CDR enquiry intake server

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables (also read from .env):
  PORT              Port to listen on (default: 8080)
  LOG_LEVEL         debug, info, warn, error (default: info)
  DEFAULT_COUNTRY   Country preselected on the phone step (default: NP)
  SESSION_TTL       Idle time before an unfinished form is discarded (default: 30m)
  SWEEP_INTERVAL    How often idle forms are swept (default: 1m)
  DATABASE_PATH     SQLite file for submissions, empty keeps them in memory (default: ./data/intake.db)
  EXPORT_ENABLED    Append submissions to a text file (default: true)
  EXPORT_FILE       Path of that file (default: ./cdr-intake-submissions.txt)
  WEBHOOK_URL       Relay submissions to this URL (optional)
  WEBHOOK_TOKEN     Bearer token sent to the webhook (optional)
  WEBHOOK_TIMEOUT   Webhook request timeout (default: 10s)
  ADMIN_USER        Basic auth user for /api/admin/submissions
  ADMIN_PASS        Basic auth password for /api/admin/submissions

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("cdrintake %s\n", version)
		return
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		zerologlog.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
	}

	port := *portFlag
	if port == "" {
		port = cfg.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir := intake.NewDirectory(intake.DefaultDirectory().All(), cfg.DefaultCountry)
	if _, ok := dir.Lookup(cfg.DefaultCountry); !ok {
		zerologlog.Warn().Str("country", cfg.DefaultCountry).Str("using", dir.Default().Code).Msg("unknown DEFAULT_COUNTRY")
	}
	sm := intake.NewManager(intake.WithDirectory(dir), intake.WithTTL(cfg.SessionTTL))
	go sm.Run(ctx, cfg.SweepInterval)

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		zerologlog.Fatal().Err(err).Msg("failed to open submission store")
	}
	defer st.Close()

	var opts []delivery.Option
	if cfg.ExportEnabled {
		opts = append(opts, delivery.WithExport(cfg.ExportFile, sm.Steps()))
	}
	if cfg.WebhookURL != "" {
		opts = append(opts, delivery.WithRelay(webhook.New(cfg.WebhookURL, cfg.WebhookToken, cfg.WebhookTimeout), cfg.WebhookTimeout))
	}
	d := delivery.NewDispatcher(st, opts...)
	defer d.Wait()

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		zerologlog.Info().Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC(), "sessions": sm.Len()})
	})

	var admin gin.HandlerFunc
	if cfg.AdminEnabled() {
		admin = gin.BasicAuth(gin.Accounts{cfg.AdminUser: cfg.AdminPass})
	}
	api.New(sm, d).Mount(r, admin)

	io := ws.New(sm, d).Mount(r)
	defer io.Close()

	// Everything else is the embedded site
	r.NoRoute(func(c *gin.Context) {
		staticserver.Handler().ServeHTTP(c.Writer, c.Request)
	})

	srv := &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	zerologlog.Info().Str("port", port).Str("db", cfg.DatabasePath).Bool("export", cfg.ExportEnabled).Bool("webhook", cfg.WebhookURL != "").Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zerologlog.Fatal().Err(err).Msg("server stopped")
	}
}
