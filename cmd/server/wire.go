//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"masterful/services/chat-api/internal/config"
	"masterful/services/chat-api/internal/domain/chat"
	"masterful/services/chat-api/internal/infrastructure/auth"
	"masterful/services/chat-api/internal/interfaces/httpserver"
	"masterful/services/chat-api/internal/realtime"
)

// BuildApplication wires the HTTP layer on top of the runtime-selected
// storage backend and the realtime hub.
func BuildApplication(
	cfg *config.Config,
	log zerolog.Logger,
	service chat.Service,
	hub *realtime.Hub,
	validator *auth.Validator,
) (*Application, error) {
	wire.Build(
		httpserver.ProviderSet,
		newApplication,
	)
	return nil, nil
}
