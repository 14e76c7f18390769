// Command guildmanagerd is the process entrypoint: it wires the store
// gateway, cache engine, cache loader, roster reconciler, and coarse
// scheduler together and runs until terminated (spec §1, §4.H).
//
// The Discord-facing pieces (events.Lifecycle, command dispatch) need a
// concrete discord.Session, which is supplied by the host application
// embedding this module — this binary only proves out and exercises the
// platform-independent core.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/romaingrosos/myguildmanager-core/cache"
	"github.com/romaingrosos/myguildmanager-core/cacheloader"
	"github.com/romaingrosos/myguildmanager-core/config"
	"github.com/romaingrosos/myguildmanager-core/ratelimit"
	"github.com/romaingrosos/myguildmanager-core/roster"
	"github.com/romaingrosos/myguildmanager-core/scheduler"
	"github.com/romaingrosos/myguildmanager-core/store"
	"github.com/romaingrosos/myguildmanager-core/translations"
)

func newLogger(production bool) zerolog.Logger {
	if production {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.Stamp,
	}).With().Timestamp().Logger()
}

func main() {
	configFile := os.Getenv("GMM_CONFIG_FILE")

	cfg, err := config.Load(configFile)
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("fatal-config: failed to load configuration")
	}

	log := newLogger(cfg.Production)
	if cfg.Debug {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw, err := store.Open(store.Config{
		DSN:                     dsn(cfg),
		MaxOpenConns:            cfg.DBPoolSize,
		QueryTimeout:            time.Duration(cfg.DBTimeoutSeconds) * time.Second,
		BreakerFailureThreshold: uint32(cfg.DBCircuitBreakerThreshold),
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store gateway")
	}
	defer gw.Close()

	reg := prometheus.NewRegistry()
	cacheEngine := cache.NewEngine(log, reg, "guildmanager")
	defer cacheEngine.Shutdown()

	loader := cacheloader.New(gw, cacheEngine, log)
	loader.LoadAll(ctx)

	reconciler := roster.New(gw, cacheEngine, log)

	limiter := ratelimit.New(cfg.RateLimitPerMinute, ratelimit.DefaultCooldown)
	_ = limiter

	var bundle *translations.Bundle
	if cfg.TranslationFile != "" {
		bundle, err = translations.Load(cfg.TranslationFile, log)
		if err != nil {
			log.Warn().Err(err).Msg("translation bundle failed to load, continuing without it")
		}
	}
	_ = bundle

	sched := scheduler.New(time.Second, log)
	sched.Register("cache_maintenance", 5*time.Minute, func(ctx context.Context, firedAt time.Time) {
		cacheEngine.Maintain(ctx)
	})
	sched.Register("roster_maintenance", time.Hour, func(ctx context.Context, firedAt time.Time) {
		loader.Reload(cacheloader.CategoryStaticGroups)
		_ = reconciler
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	log.Info().Msg("guildmanagerd started, send SIGINT/SIGTERM to stop")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	log.Info().Msg("shutting down")
	cancel()
	wg.Wait()
}

func dsn(cfg config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}
