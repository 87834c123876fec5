package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserIDKey - ключ gin-контекста с id аутентифицированного пользователя
const UserIDKey = "user_id"

// TokenVerifier проверяет токен и возвращает id пользователя
type TokenVerifier interface {
	VerifyToken(ctx context.Context, raw string) (int64, error)
}

// AuthMiddleware принимает токен из x-auth-token или Authorization: Bearer.
// Без токена или с недействительным токеном запрос завершается 401
func AuthMiddleware(verifier TokenVerifier, invalid error, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("x-auth-token")
		if token == "" {
			if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "No token, authorization denied"})
			return
		}

		userID, err := verifier.VerifyToken(c.Request.Context(), token)
		if errors.Is(err, invalid) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token is not valid"})
			return
		}
		if err != nil {
			log.Error("token verification failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": "Server Error"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID достает id пользователя, выставленный AuthMiddleware
func UserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
