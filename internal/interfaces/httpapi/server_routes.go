package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerSnapshotRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("GET /v1/fixtures", handler.ListFixtures)
	// Always fetched live from the remote API, never from the cache.
	mux.HandleFunc("GET /v1/fixtures/past", handler.ListPastFixtures)
}

func registerStreamRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/stream/{collection}", handler.Stream)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/refresh", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRefreshJob)))
}
