package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
)

// ProviderSet provides the v1 route groups.
var ProviderSet = wire.NewSet(
	NewChatRoutes,
	NewRoutes,
)

// Routes aggregates every v1 route group.
type Routes struct {
	chat *ChatRoutes
}

// NewRoutes creates the v1 routes aggregate.
func NewRoutes(chat *ChatRoutes) *Routes {
	return &Routes{chat: chat}
}

// Register mounts all v1 routes under /v1.
func (r *Routes) Register(engine *gin.Engine) {
	group := engine.Group("/v1")
	r.chat.Register(group)
}
