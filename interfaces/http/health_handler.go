package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"my-campaign/domain/dto"
)

type IHealthHandler interface {
	Health(ctx *gin.Context)
}

type HealthHandler struct{}

func NewHealthHandler() IHealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Health(ctx *gin.Context) {
	var res dto.Res
	res.ResponseCode = "200"
	res.ResponseMessage = "OK"
	ctx.JSON(http.StatusOK, res)
}
