// Command server runs the greencheck API: domain green status resolution
// backed by provider network registrations and the carbon.txt trust chain.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/carbontxt"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/checklog"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/claims"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/checker"
	greenstore "github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/store"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/hashes"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/ipregistry"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/jwttoken"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/platform/config"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/platform/httpserver"
	kafkaplatform "github.com/thegreenwebfoundation/admin-portal-sub000/internal/platform/kafka"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/platform/logger"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/platform/metrics"
	redisplatform "github.com/thegreenwebfoundation/admin-portal-sub000/internal/platform/redis"
	providerservice "github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/service"
	providerstore "github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/store"
	httptransport "github.com/thegreenwebfoundation/admin-portal-sub000/internal/transport/http"
	txcontext "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Stores: Postgres when a DSN is configured, in-memory otherwise.
	var (
		providers providerstore.Store
		green     greenstore.Store
		tx        hashes.Transactor
		health    []httptransport.HealthChecker
	)
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		providers = providerstore.NewPostgres(db)
		green = greenstore.NewPostgres(db, cfg.Cache.TTL)
		tx = txcontext.NewTransactor(db)
		health = append(health, db.PingContext)
		log.Info("using postgres stores")
	} else {
		memProviders := providerstore.NewMemory()
		providers = memProviders
		green = greenstore.NewMemory(cfg.Cache.TTL, greenstore.WithDelistedFn(delistedFn(memProviders)))
		tx = hashes.PassthroughTransactor{}
		log.Warn("no postgres DSN configured, using in-memory stores")
	}

	// Redis badge cache is optional.
	badges := greenstore.BadgeCache(greenstore.NoopBadgeCache{})
	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		badges = greenstore.NewRedisBadgeCache(redisClient.Client)
		health = append(health, redisClient.Health)
	}

	hashSvc, err := hashes.New(providers, tx, hashes.WithLogger(log))
	if err != nil {
		return err
	}

	dns := carbontxt.NewResolverDNSClient(cfg.Resolver.LookupTimeout)
	fetcher := carbontxt.NewHTTPFetcher(&http.Client{Timeout: cfg.Resolver.FetchTimeout})
	parser := carbontxt.NewParser(providers, green, log)
	resolver, err := carbontxt.NewResolver(dns, fetcher, hashSvc, parser, green,
		carbontxt.WithMaxHops(cfg.Resolver.MaxHops),
		carbontxt.WithResolverLogger(log),
	)
	if err != nil {
		return err
	}

	registry, err := ipregistry.New(providers,
		ipregistry.NewDNSASNLookup(nil, cfg.Resolver.LookupTimeout),
		nil,
		ipregistry.WithLogger(log),
	)
	if err != nil {
		return err
	}

	claimSvc, err := claims.New(dns, fetcher, hashSvc, providers, green, claims.WithLogger(log))
	if err != nil {
		return err
	}

	providerSvc, err := providerservice.New(providers, green,
		providerservice.WithLogger(log),
		providerservice.WithBadgeCache(badges),
	)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	// Check logging is best effort and only runs when brokers are
	// configured.
	checkLog := checker.CheckLogger(checker.NoopCheckLogger{})
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := kafkaplatform.New(cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		defer kafkaClient.Close()
		if err := kafkaplatform.EnsureTopic(ctx, kafkaClient, cfg.Kafka.Topic, 3); err != nil {
			return err
		}
		publisher := checklog.NewPublisher(1024, log)
		worker := checklog.NewWorker(
			publisher.Inbox(),
			checklog.NewKafkaSink(kafkaClient, cfg.Kafka.Topic),
			checklog.NewCircuitBreaker(5, time.Minute),
			log,
		)
		g.Go(func() error { return worker.Run(ctx) })
		checkLog = checklog.NewLogger(publisher)
		log.Info("check logging enabled", "topic", cfg.Kafka.Topic)
	}

	checkSvc, err := checker.New(green, registry, resolver,
		checker.WithLogger(log),
		checker.WithBadgeCache(badges),
		checker.WithCheckLogger(checkLog),
		checker.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	jwtSvc := jwttoken.NewService(cfg.Server.JWTSigningKey, "greencheck")
	handler := httptransport.NewHandler(
		checkSvc, hashSvc, claimSvc, providerSvc, parser, resolver, jwtSvc,
		httptransport.WithLogger(log),
		httptransport.WithMetrics(m),
		httptransport.WithHealthChecks(health...),
	)
	srv := httpserver.New(cfg.Server, handler.Router())

	janitor := greenstore.NewJanitor(green, badges, cfg.Cache.TTL, cfg.Cache.MaintenanceTick, log)
	g.Go(func() error { return janitor.Run(ctx) })

	g.Go(func() error {
		log.Info("starting greencheck server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// delistedFn lets the in-memory green store answer "should this provider
// still be listed" during sweeps.
func delistedFn(providers providerstore.Store) greenstore.DelistedFn {
	return func(ctx context.Context, providerID uuid.UUID) (bool, error) {
		provider, err := providers.GetProvider(ctx, providerID)
		if err != nil {
			return false, err
		}
		return provider.Archived || !provider.ShowOnWebsite, nil
	}
}
