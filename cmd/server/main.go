// ==============================================================================
// TREASURY SERVICE MAIN - cmd/server/main.go
// ==============================================================================
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/JayMung/FactureX-sub003/internal/auth"
	"github.com/JayMung/FactureX-sub003/internal/handler"
	"github.com/JayMung/FactureX-sub003/internal/ledger"
	"github.com/JayMung/FactureX-sub003/internal/middleware"
	"github.com/JayMung/FactureX-sub003/internal/rates"
	"github.com/JayMung/FactureX-sub003/internal/repository/postgres"
	"github.com/JayMung/FactureX-sub003/pkg/cache"
	"github.com/JayMung/FactureX-sub003/pkg/config"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
	"github.com/JayMung/FactureX-sub003/pkg/validator"
)

func main() {
	cfg := config.Load()
	log := logger.New("treasury-service")

	if err := cfg.ValidateCore(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Starting Treasury Service", map[string]interface{}{
		"port": cfg.Server.Port,
	})

	// Database connection
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	log.Info("Database connected", nil)

	// Redis connection. The rate cache falls back to memory when Redis is
	// down so aggregation endpoints keep working.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	var rateCache rates.Cache
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn("Redis unavailable, using in-memory rate cache", map[string]interface{}{
			"error": err.Error(),
		})
		rateCache = rates.NewMemoryCache()
	} else {
		log.Info("Redis connected", nil)
		rateCache = rates.NewRedisCache(cache.NewFromClient(redisClient))
	}

	// Repositories
	mouvementRepo := postgres.NewMouvementRepository(db)
	compteRepo := postgres.NewCompteRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	settingRepo := postgres.NewSettingRepository(db)
	tauxChangeRepo := postgres.NewTauxChangeRepository(db)
	apiKeyRepo := postgres.NewAPIKeyRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Services
	rateProvider := rates.NewProvider(settingRepo, rateCache, cfg.Rates.CacheTTL, log)
	ledgerService := ledger.NewService(mouvementRepo, compteRepo, rateProvider, log)
	apiKeyService := auth.NewAPIKeyService(apiKeyRepo)

	// Handlers
	val := validator.New()
	mouvementHandler := handler.NewMouvementHandler(ledgerService, log)
	compteHandler := handler.NewCompteHandler(compteRepo, ledgerService, val, log)
	treasuryHandler := handler.NewTreasuryHandler(ledgerService, log)
	rateHandler := handler.NewRateHandler(rateProvider, tauxChangeRepo, cfg.Rates.StreamInterval, log)
	transactionHandler := handler.NewTransactionHandler(transactionRepo, log)
	settingHandler := handler.NewSettingHandler(settingRepo, tauxChangeRepo, rateProvider, val, log)
	apiKeyHandler := handler.NewAPIKeyHandler(apiKeyService, val, log)
	auditHandler := handler.NewAuditHandler(auditRepo, log)

	// Setup router
	r := mux.NewRouter()

	// Middleware
	r.Use(middleware.CORS)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.NewRecovery(log))
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB global cap
	r.Use(middleware.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window).Limit)

	authMW := middleware.NewAuthMiddleware(cfg.JWT.Secret, apiKeyService)

	// Routes
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/ready", readyCheck(db)).Methods("GET")

	// Protected routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(authMW.Authenticate)
	api.Use(middleware.NewAuditMiddleware(auditRepo, log).Audit)

	api.HandleFunc("/mouvements", mouvementHandler.List).Methods("GET")
	api.HandleFunc("/mouvements/stats", mouvementHandler.Stats).Methods("GET")

	api.HandleFunc("/comptes", compteHandler.List).Methods("GET")
	api.HandleFunc("/comptes", compteHandler.Create).Methods("POST")
	api.HandleFunc("/comptes/{id}", compteHandler.Get).Methods("GET")
	api.HandleFunc("/comptes/{id}", compteHandler.Update).Methods("PUT")
	api.HandleFunc("/comptes/{id}", compteHandler.Deactivate).Methods("DELETE")
	api.HandleFunc("/comptes/{id}/stats", compteHandler.Stats).Methods("GET")
	api.HandleFunc("/comptes/{id}/mouvements", compteHandler.Mouvements).Methods("GET")

	api.HandleFunc("/treasury/balance", treasuryHandler.GlobalBalance).Methods("GET")

	api.HandleFunc("/rates", rateHandler.Current).Methods("GET")
	api.HandleFunc("/rates/history", rateHandler.History).Methods("GET")
	api.HandleFunc("/rates/stream", rateHandler.Stream)

	api.HandleFunc("/transactions", transactionHandler.List).Methods("GET")
	api.HandleFunc("/transactions/{id}", transactionHandler.Get).Methods("GET")

	api.HandleFunc("/settings", settingHandler.List).Methods("GET")
	api.HandleFunc("/settings", settingHandler.Upsert).Methods("PUT")

	api.HandleFunc("/api-keys", apiKeyHandler.Create).Methods("POST")
	api.HandleFunc("/api-keys", apiKeyHandler.List).Methods("GET")
	api.HandleFunc("/api-keys/{id}", apiKeyHandler.Revoke).Methods("DELETE")

	api.HandleFunc("/audit-logs", auditHandler.List).Methods("GET")

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Info("Treasury service started", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down treasury service...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Treasury service forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Treasury service stopped gracefully", nil)
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	_ = r
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"treasury"}`))
}

func readyCheck(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready","reason":"database unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready","service":"treasury"}`))
	}
}
