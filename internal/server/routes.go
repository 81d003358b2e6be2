package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/torneo/internal/api/v1"
	torneoslack "github.com/gosuda/torneo/internal/gateway/slack"
)

func registerAPIRoutes(api huma.API, reader v1.Reader) {
	v1.RegisterRankingRoutes(api, reader)
	v1.RegisterTenantRoutes(api, reader)
}

func registerSlackRoutes(r chi.Router, handler *torneoslack.Handler) {
	r.Post("/commands", handler.HandleCommands)
	r.Post("/interactions", handler.HandleInteractions)
}
