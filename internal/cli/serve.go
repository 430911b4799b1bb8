package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/boardcamp-api/internal/config"
	"github.com/iliyamo/boardcamp-api/internal/database"
	"github.com/iliyamo/boardcamp-api/internal/handler"
	"github.com/iliyamo/boardcamp-api/internal/jobs"
	"github.com/iliyamo/boardcamp-api/internal/logger"
	"github.com/iliyamo/boardcamp-api/internal/metrics"
	"github.com/iliyamo/boardcamp-api/internal/middleware"
	"github.com/iliyamo/boardcamp-api/internal/queue"
	"github.com/iliyamo/boardcamp-api/internal/repository"
	"github.com/iliyamo/boardcamp-api/internal/router"
	"github.com/iliyamo/boardcamp-api/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepTimeout    = 30 * time.Second
)

type serveOptions struct {
	migrate bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logger.New(cfg.Env, rootOpts.level(cfg.LogLevel))
			return runServe(cmd.Context(), cfg, log, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, log *logrus.Logger, opts *serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.migrate {
		m, err := database.OpenMigrator(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return fmt.Errorf("open migrator: %w", err)
		}
		err = m.Up()
		_ = m.Close()
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		log.Info("migrations applied")
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	m := metrics.New()
	rdb := config.NewRedisClient(cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}

	var pub service.Publisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		amqpPub := service.NewAMQPPublisher(cfg.RabbitURL, log)
		defer amqpPub.Close()
		pub = amqpPub
	}

	categories := repository.NewCategoryRepo(db)
	games := repository.NewGameRepo(db)
	customers := repository.NewCustomerRepo(db)
	rentals := service.NewRentalService(repository.NewRentalRepo(db), pub, m, log)

	e := buildRouter(cfg, log, m, rdb, db, categories, games, customers, rentals)

	// background workers share one context, cancelled on shutdown
	bgCtx, stopBg := context.WithCancel(context.Background())
	defer stopBg()
	consumerDone := make(chan struct{})
	if cfg.EventsEnabled {
		consumer := queue.NewConsumer(cfg.RabbitURL, log)
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("rental consumer stopped")
			}
		}()
	} else {
		close(consumerDone)
	}

	var sched *jobs.Scheduler
	if cfg.OverdueSweepEnabled {
		sched = jobs.NewScheduler(log)
		if err := sched.AddOverdueSweep(cfg.OverdueSweepSchedule, rentals, sweepTimeout); err != nil {
			return err
		}
		sched.Start()
	}

	srvErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-srvErr:
		if err != nil {
			stopBg()
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.WithError(err).Warn("scheduler shutdown")
		}
	}
	stopBg()
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		log.Warn("rental consumer did not stop in time")
	}
	return nil
}

func buildRouter(
	cfg *config.Config,
	log logrus.FieldLogger,
	m *metrics.Metrics,
	rdb *redis.Client,
	db handler.Pinger,
	categories *repository.CategoryRepo,
	games *repository.GameRepo,
	customers *repository.CustomerRepo,
	rentals *service.RentalService,
) *echo.Echo {
	e := router.New(cfg, log, m, rdb)
	router.RegisterRoutes(e, db, m)
	router.RegisterCatalog(e,
		handler.NewCategoryHandler(categories, log),
		handler.NewGameHandler(games, categories, log),
		middleware.NewRedisCache(cfg.Cache, rdb),
		middleware.NewCacheInvalidator(cfg.Cache, rdb, log),
	)
	router.RegisterCustomers(e, handler.NewCustomerHandler(customers, log))
	router.RegisterRentals(e, handler.NewRentalHandler(rentals, log))
	return e
}
