package routes

import (
	"github.com/google/wire"

	v1 "masterful/services/chat-api/internal/interfaces/httpserver/routes/v1"
)

// ProviderSet provides all route registrars.
var ProviderSet = wire.NewSet(
	v1.ProviderSet,
)
