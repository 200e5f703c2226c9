package middleware

import (
	"github.com/gin-gonic/gin"
)

// RegisterGlobalMiddleware applies the layers every route shares. Auth
// is registered per route group instead.
func RegisterGlobalMiddleware(router *gin.Engine) {
	router.Use(gin.Recovery(), CORS())
}
