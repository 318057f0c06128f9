package handlers

import (
	"net/http"

	"github.com/diewo77/factures-api/httpx"
)

// homeMessage is a fixed liveness string; clients match on it, so it is not translated.
const homeMessage = "API Gestion Factures OK"

// Home: GET /
func Home(w http.ResponseWriter, r *http.Request) {
	httpx.Message(w, http.StatusOK, homeMessage)
}

// Healthz reports whether ping succeeds: 200 {"status":"ok"} or 503 {"status":"degraded"}.
func Healthz(ping func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ping(); err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
