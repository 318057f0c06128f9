// Package server assembles the HTTP API.
package server

import (
	"net/http"

	"github.com/diewo77/factures-api/auth"
	"github.com/diewo77/factures-api/httpx"
	"github.com/diewo77/factures-api/internal/config"
	"github.com/diewo77/factures-api/internal/db"
	"github.com/diewo77/factures-api/internal/handlers"
	"github.com/diewo77/factures-api/internal/intake"
	"github.com/diewo77/factures-api/internal/ocr"
	"github.com/diewo77/factures-api/internal/services"
	"github.com/diewo77/factures-api/internal/storage"
	"gorm.io/gorm"
)

// Deps are the runtime dependencies main builds from configuration.
type Deps struct {
	DB        *gorm.DB
	Store     storage.Store
	Extractor ocr.Extractor
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(cfg *config.Config, deps Deps) http.Handler {
	mux := http.NewServeMux()

	users := services.NewUserService(deps.DB, cfg.Auth.BcryptCost)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL, cfg.Auth.JWTIssuer)
	invoices := services.NewInvoiceService(deps.DB)
	uploads := services.NewUploadService(
		intake.New(deps.Store, cfg.Storage.MaxUploadBytes),
		invoices,
		deps.Extractor,
		cfg.OCR.Timeout,
	)

	requireBearer := auth.RequireBearer(tokens, users.Exists)

	ah := handlers.NewAuthHandler(users, tokens)
	ih := handlers.NewInvoiceHandler(invoices, uploads, cfg.Storage.MaxUploadBytes)

	// --- Public ---
	mux.HandleFunc("GET /{$}", handlers.Home)
	mux.HandleFunc("GET /healthz", handlers.Healthz(func() error { return db.Ping(deps.DB) }))
	mux.HandleFunc("POST /register", ah.Register)
	mux.HandleFunc("POST /login", ah.Login)

	// --- Bearer protected ---
	mux.Handle("POST /upload", requireBearer(http.HandlerFunc(ih.Upload)))
	mux.Handle("GET /factures", requireBearer(http.HandlerFunc(ih.List)))
	mux.Handle("GET /factures/{id}/articles", requireBearer(http.HandlerFunc(ih.Articles)))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.Localized(w, r, http.StatusNotFound, "not_found")
	})

	return httpx.WithLogging(httpx.WithRecover(mux))
}
