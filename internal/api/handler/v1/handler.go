package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/eventine/ticketing-api/internal/api/handler/v1/response"
	"github.com/eventine/ticketing-api/internal/api/middleware"
)

func getUserIDFromContext(ctx *gin.Context) (uint, *response.Err) {
	v, exists := ctx.Get(middleware.ContextKeyUserID)
	if !exists {
		return 0, response.ErrUnauthorized(fmt.Errorf("user ID not found in context"))
	}

	userID, ok := v.(uint)
	if !ok {
		return 0, response.ErrUnauthorized(fmt.Errorf("user ID in context has unexpected type %T", v))
	}

	return userID, nil
}
