package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

// requireIdentity reads what JWTAuth put on the context. The raw bearer is
// kept so downstream calls can present it.
func requireIdentity(c *gin.Context) (models.Identity, bool) {
	id := models.Identity{
		UserID:     c.GetString("user_id"),
		Role:       models.UserRole(c.GetString("role")),
		Credential: c.GetString("credential"),
	}
	if id.UserID != "" && id.Credential != "" {
		return id, true
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", utils.ErrUnauthenticated))
	return models.Identity{}, false
}
