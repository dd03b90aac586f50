package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/engagement/internal/api"
	"example.com/engagement/internal/auth"
	"example.com/engagement/internal/config"
	"example.com/engagement/internal/domain"
	"example.com/engagement/internal/events"
	"example.com/engagement/internal/outbox"
	"example.com/engagement/internal/persistence/memory"
	"example.com/engagement/internal/persistence/postgres"
	httptransport "example.com/engagement/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		sessions   domain.SessionStore
		users      domain.UserCatalog
		dispatcher *outbox.Dispatcher
	)

	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("failed to ensure schema: %v", err)
		}

		repo := postgres.NewRepository(pool)
		sessions, users = repo, repo

		producer := outbox.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()

		dispatcher = outbox.NewDispatcher(pool, producer, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		go dispatcher.Start(ctx)
	} else {
		store := memory.NewSeededStore()
		store.SetEventSink(func(ctx context.Context, envelopes ...events.Envelope) {
			for _, envelope := range envelopes {
				log.Printf("event (type=%s, key=%s)", envelope.EventType, envelope.PartitionKey)
			}
		})
		sessions, users = store, store
		log.Println("POSTGRES_URL not set, using in-memory session store")
	}

	service := domain.NewService(sessions, users)

	handler := api.NewHandler(service)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	skipper := func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
	}
	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, skipper)

	// CORS stays outermost so browser preflights are answered before
	// authentication; preflight requests carry no Authorization header.
	cors := httptransport.CORS("http://localhost:5173")
	server := httptransport.NewServer(httptransport.ServerConfig{
		Address: cfg.HTTPAddress,
	}, cors(httptransport.RequestLogger(authMiddleware.Wrap(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("engagement-service listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
}
