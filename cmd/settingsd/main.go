package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"settingsd/internal/common/fsutil"
	"settingsd/internal/config"
	"settingsd/internal/httpapi"
	"settingsd/internal/seed"
	"settingsd/internal/store"
	"settingsd/internal/watch"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// splitCSV splits a comma separated flag value, trimming whitespace and
// dropping empty items.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	// Flags with environment variable defaults
	addr := flag.String("addr", envOr("SETTINGSD_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	configPath := flag.String("config", envOr("SETTINGSD_CONFIG", ""), "Optional config file (.yaml/.json/.toml)")
	dataDir := flag.String("data-dir", envOr("SETTINGSD_DATA_DIR", ""), "Directory for the settings database (empty=in-memory)")
	seedDir := flag.String("seed-dir", envOr("SETTINGSD_SEED_DIR", ""), "Directory of <desk>.<bucket>.{yaml,json} seed files")
	globalDesk := flag.String("global-desk", envOr("SETTINGSD_GLOBAL_DESK", ""), "Desk whose buckets underlie merged views")
	logLevel := flag.String("log-level", envOr("SETTINGSD_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	corsEnabled := flag.Bool("cors", false, "Enable CORS middleware")
	corsOrigins := flag.String("cors-origins", "", "Comma separated allowed CORS origins")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(*logLevel); err == nil {
		logger = logger.Level(lvl)
	}
	httpapi.SetLogger(logger)

	// Config file fills anything the flags left unset.
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *configPath).Msg("load config")
		}
		if *addr == ":8080" && cfg.Addr != "" {
			*addr = cfg.Addr
		}
		if *dataDir == "" {
			*dataDir = cfg.DataDir
		}
		if *seedDir == "" {
			*seedDir = cfg.SeedDir
		}
		if *globalDesk == "" {
			*globalDesk = cfg.GlobalDesk
		}
		if cfg.LogLevel != "" {
			if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
				logger = logger.Level(lvl)
				httpapi.SetLogger(logger)
			}
		}
		if cfg.CORSEnabled {
			*corsEnabled = true
		}
		if *corsOrigins == "" && len(cfg.CORSOrigins) > 0 {
			*corsOrigins = strings.Join(cfg.CORSOrigins, ",")
		}
	}
	httpapi.SetCORSOptions(*corsEnabled, splitCSV(*corsOrigins), nil, nil)

	if *dataDir != "" {
		expanded, err := fsutil.ExpandHome(*dataDir)
		if err != nil {
			logger.Fatal().Err(err).Str("dir", *dataDir).Msg("resolve data dir")
		}
		*dataDir = expanded
	}
	if *seedDir != "" {
		expanded, err := fsutil.ExpandHome(*seedDir)
		if err != nil {
			logger.Fatal().Err(err).Str("dir", *seedDir).Msg("resolve seed dir")
		}
		*seedDir = expanded
		if !fsutil.PathExists(*seedDir) {
			logger.Fatal().Str("dir", *seedDir).Msg("seed dir does not exist")
		}
	}

	st, err := store.NewWithConfig(store.StoreConfig{
		GlobalDesk: *globalDesk,
		DataDir:    *dataDir,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	if *seedDir != "" {
		buckets, err := seed.LoadDir(*seedDir)
		if err != nil {
			logger.Fatal().Err(err).Str("dir", *seedDir).Msg("load seeds")
		}
		for _, b := range buckets {
			if err := st.Seed(b.Desk, b.Bucket, b.Entries); err != nil {
				logger.Fatal().Err(err).Str("desk", b.Desk).Str("bucket", b.Bucket).Msg("apply seed")
			}
		}
		logger.Info().Int("buckets", len(buckets)).Str("dir", *seedDir).Msg("seeded settings")
	}

	reg := watch.NewRegistry()
	hub := httpapi.NewEventHub()
	st.SetEventPublisher(httpapi.Fanout(reg, hub))

	// Base context lets long-polls and websocket streams observe
	// shutdown even after the listener stops accepting.
	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(st, reg, hub)
	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		logger.Info().Str("addr", *addr).Str("data_dir", *dataDir).Msg("settingsd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	baseCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown error")
	}
}
