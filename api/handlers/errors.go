package handlers

import (
	"errors"
	"net/http"

	"socialposts/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "posts-api"

// respondError переводит класс ошибки в HTTP-ответ.
// Серверные ошибки логируются, клиент получает только "Server Error"
func respondError(c *gin.Context, log *zap.Logger, err error) {
	kind := services.KindOf(err)
	if kind == services.KindValidation {
		var validationErr *services.ValidationError
		errors.As(err, &validationErr)
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErr.Errors})
		return
	}

	var postErr *services.PostError
	if kind == services.KindServer || !errors.As(err, &postErr) {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server Error"})
		return
	}

	status := http.StatusBadRequest
	switch kind {
	case services.KindAuthorization:
		status = http.StatusUnauthorized
	case services.KindNotFound:
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"msg": postErr.Msg})
}
