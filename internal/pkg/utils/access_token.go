package utils

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
)

const tokenCtxKey string = "accessToken"

type AccessToken struct {
	Token auth.Token
}

func GetAccessToken(ctx *gin.Context) auth.Token {
	value, exists := ctx.Get(tokenCtxKey)
	if !exists {
		ctx.AbortWithStatus(http.StatusInternalServerError)
	}
	return value.(AccessToken).Token
}

// GetUserExternalId is the caller's player id. Requires a verified
// token on the context.
func GetUserExternalId(ctx *gin.Context) string {
	return GetAccessToken(ctx).Subject
}

// GetViewerId is the lenient variant for spectator endpoints: empty
// string when the caller is anonymous.
func GetViewerId(ctx *gin.Context) string {
	value, exists := ctx.Get(tokenCtxKey)
	if !exists {
		return ""
	}
	return value.(AccessToken).Token.Subject
}

func SetAccessTokenCtx(token *AccessToken, ctx *gin.Context) {
	ctx.Set(tokenCtxKey, *token)
}
