package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/iliyamo/classroom-seating/internal/config"
	"github.com/iliyamo/classroom-seating/internal/database"
	"github.com/iliyamo/classroom-seating/internal/handler"
	"github.com/iliyamo/classroom-seating/internal/history"
	"github.com/iliyamo/classroom-seating/internal/middleware"
	"github.com/iliyamo/classroom-seating/internal/queue"
	"github.com/iliyamo/classroom-seating/internal/render"
	"github.com/iliyamo/classroom-seating/internal/repository"
	"github.com/iliyamo/classroom-seating/internal/router"
	"github.com/iliyamo/classroom-seating/internal/seating"
	"github.com/iliyamo/classroom-seating/internal/service"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger := configFrom(ctx), loggerFrom(ctx)
			db, dialect, err := database.Open(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(ctx, db, dialect); err != nil {
				return err
			}
			logger.Info("migrations applied", "driver", cfg.DBDriver)
			return nil
		},
	}
}

func newConsumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Write seating.saved events to the event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFrom(ctx)
			err := queue.NewConsumer(cfg.AMQPURL, cfg.EventLogDir, loggerFrom(ctx)).Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger := configFrom(ctx), loggerFrom(ctx)

			// the font is checked before anything else so a bad deployment
			// fails fast
			renderOpts := []render.Option{render.WithMarker(cfg.MaleMarker)}
			if cfg.FontPath != "" {
				font, err := render.LoadFont(cfg.FontFamily, cfg.FontPath)
				if err != nil {
					return err
				}
				renderOpts = append(renderOpts, render.WithFont(font))
			}
			renderer := render.NewPDFRenderer(renderOpts...)
			font, err := renderer.Font()
			if err != nil {
				return err
			}
			if !font.Covers(cfg.MaleMarker) {
				logger.Warn("export font cannot draw the gender marker, set PDF_FONT_PATH for names in that script",
					"font", font.Family, "marker", cfg.MaleMarker)
			}

			redisCfg, err := config.LoadRedisConfig()
			if err != nil {
				return err
			}
			cacheCfg, err := config.LoadSnapshotCacheConfig()
			if err != nil {
				return err
			}
			limitCfg, err := config.LoadRateLimitConfig()
			if err != nil {
				return err
			}

			db, dialect, err := database.Open(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if migrate {
				if err := database.Migrate(ctx, db, dialect); err != nil {
					return err
				}
			}

			rdb := config.NewRedisClient(redisCfg)
			if rdb == nil {
				logger.Warn("redis unavailable: rate limiting, snapshot cache and distributed locks disabled")
			} else {
				defer rdb.Close()
			}

			store := history.NewStore(repository.NewSeatingRecordRepo(db),
				history.WithCache(history.NewSnapshotCache(cacheCfg, rdb)),
				history.WithLogger(logger.WithPrefix("history")))

			var locker service.ClassLocker = service.NewKeyedMutex()
			if rdb != nil {
				locker = service.NewRedisLocker(rdb, cacheCfg.Prefix, 10*time.Second, 5*time.Second)
			}
			deps := service.Deps{
				Classrooms: repository.NewClassroomRepo(db),
				Students:   repository.NewStudentRepo(db),
				Engine: seating.NewEngine(
					seating.WithStrictCapacity(cfg.StrictCapacity),
					seating.WithLogger(logger.WithPrefix("engine"))),
				History:  store,
				Renderer: renderer,
				Locker:   locker,
				Logger:   logger.WithPrefix("seating"),
			}
			if cfg.EventsEnabled {
				deps.Events = queue.NewPublisher(cfg.AMQPURL)
			}
			h := handler.NewSeatingHandler(service.NewSeatingService(deps), logger.WithPrefix("http"))

			e := echo.New()
			e.HideBanner = true
			e.Use(echomw.Recover())
			router.RegisterRoutes(e, db)
			router.RegisterSeating(e, h, router.SeatingOptions{
				JWTSecret: cfg.JWTSecret,
				Limiter:   middleware.NewTokenBucket(limitCfg, rdb, logger.WithPrefix("ratelimit")),
			})

			errc := make(chan error, 1)
			go func() {
				addr := ":" + cfg.Port
				logger.Info("listening", "addr", addr, "env", cfg.Env, "driver", cfg.DBDriver)
				errc <- e.Start(addr)
			}()
			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			logger.Info("shutting down")
			return e.Shutdown(sctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply migrations on startup")
	return cmd
}
