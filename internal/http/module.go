// Package http holds the pieces shared by the router and the feature modules.
package http

import (
	"github.com/gin-gonic/gin"
)

// Module is a feature that mounts its own routes.
type Module interface {
	// Name is used in startup logs.
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what a module gets to mount routes on.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is the /api/v1 group.
	V1 *gin.RouterGroup
}
