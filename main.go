package main

import (
	"net/http"
	"os"
	"time"

	"cribtrakr/config"
	"cribtrakr/db"
	"cribtrakr/handlers"
	appmw "cribtrakr/middleware"
	"cribtrakr/storage"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file, using environment as-is")
	}

	cfg := config.Load()
	// Token code reads the secret from the environment, so the configured
	// default has to be exported before any token is signed or verified.
	os.Setenv("JWT_SECRET", cfg.JWTSecret)
	handlers.JWTExpiry = cfg.JWTExpiry
	handlers.PublicURL = cfg.S3PublicURL

	if err := db.Connect(cfg.DatabaseURL); err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if cfg.S3AccessKey != "" {
		store, err := storage.NewS3Store(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			logger.Fatal("object store setup failed", zap.Error(err))
		}
		handlers.Objects = store
	} else {
		logger.Warn("no S3 credentials, uploads go to an in-memory store")
		handlers.Objects = storage.NewMemStore()
	}

	r := newRouter(logger)

	logger.Info("server listening", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newRouter(logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors)

	r.Post("/api/users", handlers.Register)
	r.Post("/api/auth/login", handlers.Login)
	r.Post("/api/rentals/upload", handlers.UploadImage)

	r.Group(func(r chi.Router) {
		r.Use(appmw.RequireAuth)

		r.Post("/api/auth/refresh", handlers.RefreshToken)
		r.Get("/api/protected", handlers.Protected)

		r.Get("/api/rentals", handlers.GetRentals)
		r.Get("/api/rentals/{id}", handlers.GetRental)
		r.Post("/api/rentals", handlers.CreateRental)
		r.Put("/api/rentals/{id}", handlers.UpdateRental)
		r.Delete("/api/rentals/{id}", handlers.DeleteRental)

		r.Get("/api/expenses", handlers.GetExpenses)
		r.Get("/api/expenses/prop/{propId}", handlers.GetExpensesByProperty)
		r.Get("/api/expenses/prop/{propId}/category/{category}", handlers.GetExpensesByCategory)
		r.Get("/api/expenses/prop/{propId}/range", handlers.GetExpensesByDateRange)
		r.Get("/api/expenses/{id}", handlers.GetExpense)
		r.Post("/api/expenses", handlers.CreateExpense)
		r.Put("/api/expenses/{id}", handlers.UpdateExpense)
		r.Delete("/api/expenses/{id}", handlers.DeleteExpense)
		r.Delete("/api/expenses/prop/{propId}", handlers.DeleteExpensesForProperty)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	})

	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}
