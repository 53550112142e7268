package main

import (
	"context"
	"database/sql"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"conkiri_sight/internal/adapters/observability"
	redisad "conkiri_sight/internal/adapters/redis"
	"conkiri_sight/internal/adapters/sightapi"
	"conkiri_sight/internal/app"
	"conkiri_sight/internal/domain"
	"conkiri_sight/internal/shared"
	mysqlrepo "conkiri_sight/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if _, err := observability.Serve(cfg.MetricsAddr); err != nil {
		log.Fatal().Err(err).Msg("metrics server failed")
	}

	log.Info().
		Str("base", cfg.SightBase).
		Int("workers", cfg.Workers).
		Int("targets", len(cfg.ArchiveTargets)).
		Bool("mine", cfg.ArchiveMine).
		Msg("archiver starting")

	if len(cfg.ArchiveTargets) == 0 && !cfg.ArchiveMine {
		log.Warn().Msg("nothing to archive: set ARCHIVE_TARGETS or ARCHIVE_MINE=true")
		return
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	defer db.Close()
	log.Info().Msg("db ping ok")

	opts := []sightapi.Option{
		sightapi.WithEndpoints(sightapi.NewEndpoints(cfg.SightPrefix)),
		sightapi.WithTimeout(cfg.SightTimeout),
		sightapi.WithRateLimit(cfg.SightRPS),
		sightapi.WithLogger(log.Logger),
	}
	if cfg.SightToken != "" {
		opts = append(opts, sightapi.WithHeader("Authorization", "Bearer "+cfg.SightToken))
	}
	client, err := sightapi.New(cfg.SightBase, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize sight API client")
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unavailable; cached listings will not be invalidated")
	}

	svc := app.NewArchiveService(client, mysqlrepo.New(db), cache)
	sem := semaphore.NewWeighted(int64(max(cfg.Workers, 1)))
	var (
		wg     sync.WaitGroup
		stored atomic.Int64
		failed atomic.Int64
	)

	for _, t := range cfg.ArchiveTargets {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("archiving interrupted")
			break
		}

		wg.Add(1)
		go func(t domain.ArchiveTarget) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := svc.ArchiveArena(ctx, t)
			if err != nil {
				failed.Add(1)
				withKind(log.Warn(), err).Int64("arena", t.ArenaID).Msg("archive failed")
				return
			}
			stored.Add(int64(n))
			log.Info().Int64("arena", t.ArenaID).Int64("section", t.Query.Section).Int("reviews", n).Msg("archive ok")
		}(t)
	}

	if cfg.ArchiveMine && ctx.Err() == nil {
		n, err := svc.ArchiveMine(ctx)
		if err != nil {
			failed.Add(1)
			withKind(log.Warn(), err).Msg("archive mine failed")
		} else {
			stored.Add(int64(n))
			log.Info().Int("reviews", n).Msg("archive mine ok")
		}
	}

	wg.Wait()
	log.Info().Int64("stored", stored.Load()).Int64("failed", failed.Load()).Msg("archiving completed")
}

// withKind attaches err, plus its API failure kind when it came from the API
// client. Storage errors carry no kind.
func withKind(ev *zerolog.Event, err error) *zerolog.Event {
	if k := sightapi.KindOf(err); k != 0 {
		ev = ev.Str("kind", k.String())
	}
	return ev.Err(err)
}
