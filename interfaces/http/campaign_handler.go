package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"my-campaign/domain/dto"
	"my-campaign/domain/model"
	"my-campaign/infrastructure/logger"
	"my-campaign/usecase"
)

type ICampaignHandler interface {
	PublishCampaign(ctx *gin.Context)
	GetRecords(ctx *gin.Context)
	GetPlatforms(ctx *gin.Context)
}

type CampaignHandler struct {
	publishUsecase usecase.IPublishUsecase
	platforms      []string
}

func NewCampaignHandler(uc usecase.IPublishUsecase, platforms []string) ICampaignHandler {
	return &CampaignHandler{publishUsecase: uc, platforms: platforms}
}

func (h *CampaignHandler) PublishCampaign(ctx *gin.Context) {
	var req dto.PublishCampaignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	resp, err := h.publishUsecase.PublishCampaign(ctx.Request.Context(), &req)
	if err != nil {
		logger.GetLogger().
			WithField("campaign_name", req.CampaignName).
			WithField("error", err.Error()).
			Warn("publish request failed")
		status := http.StatusInternalServerError
		switch err.Error() {
		case "campaign name required", "at least one variant required":
			status = http.StatusBadRequest
		case "platform uploader not configured":
			status = http.StatusServiceUnavailable
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func (h *CampaignHandler) GetRecords(ctx *gin.Context) {
	campaignID, err := strconv.ParseInt(ctx.Param("campaignId"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}
	records, err := h.publishUsecase.GetRecords(ctx.Request.Context(), campaignID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []*model.PublishRecord{}
	}
	ctx.JSON(http.StatusOK, gin.H{"campaign_id": campaignID, "records": records})
}

func (h *CampaignHandler) GetPlatforms(ctx *gin.Context) {
	caps := make([]gin.H, 0, len(h.platforms))
	for _, p := range h.platforms {
		caps = append(caps, gin.H{"platform": p, "upload_supported": p == "youtube"})
	}
	ctx.JSON(http.StatusOK, gin.H{"platforms": caps})
}
