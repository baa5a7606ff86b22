package handlers

import (
	"github.com/google/wire"
)

// ProviderSet provides all HTTP handlers.
var ProviderSet = wire.NewSet(
	NewChatHandler,
	NewWebSocketHandler,
)
