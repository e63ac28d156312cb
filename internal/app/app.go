// Package app assembles the service graph and HTTP surface from the chosen
// backends. cmd/server owns process lifecycle; everything here is
// constructible in tests.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"passport/internal/admin"
	"passport/internal/escrow"
	"passport/internal/events"
	eventshandler "passport/internal/events/handler"
	"passport/internal/events/relay"
	eventstore "passport/internal/events/store"
	exchangehandler "passport/internal/exchange/handler"
	exchangemetrics "passport/internal/exchange/metrics"
	exchangeservice "passport/internal/exchange/service"
	exchangestore "passport/internal/exchange/store"
	"passport/internal/facts/cache"
	factshandler "passport/internal/facts/handler"
	factsservice "passport/internal/facts/service"
	factsstore "passport/internal/facts/store"
	jwttoken "passport/internal/jwt_token"
	ledgerhandler "passport/internal/ledger/handler"
	ledgerservice "passport/internal/ledger/service"
	ledgerstore "passport/internal/ledger/store"
	passporthandler "passport/internal/passport/handler"
	passportservice "passport/internal/passport/service"
	passportstore "passport/internal/passport/store"
	"passport/internal/platform/config"
	"passport/internal/platform/metrics"
	"passport/internal/ratelimit"
	httptransport "passport/internal/transport/http"
	adminmw "passport/pkg/platform/middleware/admin"
	"passport/pkg/platform/middleware/auth"
	"passport/pkg/platform/tx"
)

// Options selects backends. A nil DB keeps every store in memory and a nil
// Redis disables the fact cache.
type Options struct {
	Config     config.Server
	Logger     *slog.Logger
	DB         *sql.DB
	Redis      redis.Cmdable
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Clock      func() time.Time
	Health     map[string]httptransport.HealthCheck
}

// App is the assembled service graph.
type App struct {
	Handler   http.Handler
	Passports *passportservice.Service
	Facts     *factsservice.Service
	Exchanges *exchangeservice.Service
	Ledger    *ledgerservice.Service
	Events    *events.Publisher
	Outbox    relay.Outbox
	Runner    tx.Runner
	Tokens    *jwttoken.JWTService
}

type stores struct {
	passports passportservice.Store
	facts     factsservice.Store
	exchanges exchangeservice.Store
	ledger    ledgerservice.Store
	events    interface {
		events.Store
		relay.Outbox
	}
}

func newStores(db *sql.DB) stores {
	if db == nil {
		return stores{
			passports: passportstore.NewInMemory(),
			facts:     factsstore.NewInMemory(),
			exchanges: exchangestore.NewInMemory(),
			ledger:    ledgerstore.NewInMemory(),
			events:    eventstore.NewInMemory(),
		}
	}
	return stores{
		passports: passportstore.NewPostgres(db),
		facts:     factsstore.NewPostgres(db),
		exchanges: exchangestore.NewPostgres(db),
		ledger:    ledgerstore.NewPostgres(db),
		events:    eventstore.NewPostgres(db),
	}
}

// New wires stores, services and handlers.
func New(opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	cfg := opts.Config
	logger := opts.Logger

	var runner tx.Runner = tx.NewShardedRunner(0)
	if opts.DB != nil {
		runner = tx.NewSQLRunner(opts.DB, 0)
	}
	st := newStores(opts.DB)

	var publisherOpts []events.PublisherOption
	if opts.Clock != nil {
		publisherOpts = append(publisherOpts, events.WithClock(opts.Clock))
	}
	publisher := events.NewPublisher(st.events, publisherOpts...)
	gate := passportservice.NewGate(st.passports)

	ledgerSvc, err := ledgerservice.New(st.ledger, ledgerservice.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("ledger service: %w", err)
	}

	factsOpts := []factsservice.Option{
		factsservice.WithLogger(logger),
		factsservice.WithEventPublisher(publisher),
	}
	if opts.Redis != nil {
		factsOpts = append(factsOpts, factsservice.WithCache(cache.NewRedis(opts.Redis, cache.WithTTL(cfg.Redis.CacheTTL))))
	}
	if opts.Clock != nil {
		factsOpts = append(factsOpts, factsservice.WithClock(opts.Clock))
	}
	factsSvc, err := factsservice.New(st.facts, runner, gate, factsOpts...)
	if err != nil {
		return nil, fmt.Errorf("facts service: %w", err)
	}

	exchangeOpts := []exchangeservice.Option{
		exchangeservice.WithLogger(logger),
		exchangeservice.WithEventPublisher(publisher),
		exchangeservice.WithMetrics(exchangemetrics.NewWithRegistry(opts.Registerer)),
	}
	if opts.Clock != nil {
		exchangeOpts = append(exchangeOpts, exchangeservice.WithClock(opts.Clock))
	}
	exchangeSvc, err := exchangeservice.New(st.exchanges, runner, gate, factsSvc, escrow.New(ledgerSvc),
		exchangeservice.Config{ProposeTimeout: cfg.ProposeTimeout, AcceptTimeout: cfg.AcceptTimeout},
		exchangeOpts...)
	if err != nil {
		return nil, fmt.Errorf("exchange service: %w", err)
	}

	passportOpts := []passportservice.Option{
		passportservice.WithLogger(logger),
		passportservice.WithEventPublisher(publisher),
	}
	if opts.Clock != nil {
		passportOpts = append(passportOpts, passportservice.WithClock(opts.Clock))
	}
	passportSvc, err := passportservice.New(st.passports, runner, ledgerSvc, exchangeSvc, passportOpts...)
	if err != nil {
		return nil, fmt.Errorf("passport service: %w", err)
	}

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	requireAuth := auth.RequireAuth(tokens, logger)
	if rl := cfg.RateLimit; rl.Requests > 0 {
		var store ratelimit.Store = ratelimit.NewInMemoryStore()
		if opts.Redis != nil {
			store = ratelimit.NewRedisStore(opts.Redis)
		}
		limiter := ratelimit.New(store, rl.Requests, rl.Window, logger)
		authenticate := requireAuth
		requireAuth = func(next http.Handler) http.Handler {
			return authenticate(limiter.Middleware(next))
		}
	}

	handler := httptransport.NewRouter(httptransport.Config{
		Logger:   logger,
		Metrics:  metrics.NewWithRegistry(opts.Registerer),
		Gatherer: opts.Gatherer,
		Health:   opts.Health,
		Handlers: []httptransport.Registrar{
			passporthandler.New(passportSvc, logger, requireAuth),
			factshandler.New(factsSvc, logger, requireAuth),
			exchangehandler.New(exchangeSvc, logger, requireAuth),
			eventshandler.New(publisher, logger),
			ledgerhandler.New(ledgerSvc, logger),
			admin.New(ledgerSvc, passportSvc, exchangeSvc, logger, adminmw.RequireAdminToken(cfg.AdminToken, logger)),
		},
	})

	return &App{
		Handler:   handler,
		Passports: passportSvc,
		Facts:     factsSvc,
		Exchanges: exchangeSvc,
		Ledger:    ledgerSvc,
		Events:    publisher,
		Outbox:    st.events,
		Runner:    runner,
		Tokens:    tokens,
	}, nil
}
