package http

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"crossposter/infrastructure/utils"
)

type IHealthHandler interface {
	Health(c *gin.Context)
}

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) IHealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(c *gin.Context) {
	dbStatus := "ok"
	if h.db == nil {
		dbStatus = "not configured"
	} else if err := h.db.PingContext(c.Request.Context()); err != nil {
		dbStatus = "unreachable"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": dbStatus,
		"time":     utils.GetCurrentTime(),
	})
}
