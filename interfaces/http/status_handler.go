package http

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crossposter/domain/dto"
	"crossposter/domain/repository"
	"crossposter/infrastructure/logger"
)

type IStatusHandler interface {
	RecentPosts(c *gin.Context)
	PostStatus(c *gin.Context)
}

// StatusHandler exposes the crosspost bookkeeping to the admin API.
type StatusHandler struct {
	mappings repository.IPostMapping
}

func NewStatusHandler(mappings repository.IPostMapping) IStatusHandler {
	return &StatusHandler{mappings: mappings}
}

// RecentPosts returns the latest message→post mappings, newest first.
func (h *StatusHandler) RecentPosts(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	mappings, err := h.mappings.RecentMappings(c.Request.Context(), limit)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while fetching recent mappings")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "OK", Data: mappings})
}

// PostStatus returns the mapping for one Telegram message of the
// authenticated user.
func (h *StatusHandler) PostStatus(c *gin.Context) {
	messageID, err := strconv.ParseInt(c.Param("message_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "Invalid message id"})
		return
	}
	userID, err := strconv.ParseInt(c.GetString("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "Invalid user id"})
		return
	}

	mapping, err := h.mappings.GetByMessageID(c.Request.Context(), messageID, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.GetLogger().WithField("error", err).Error("Error while fetching mapping")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "Internal Server Error"})
		return
	}
	if mapping == nil || errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, dto.Res{ResponseCode: "404", ResponseMessage: "Not Found"})
		return
	}
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "OK", Data: mapping})
}
