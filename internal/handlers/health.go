package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	Environment string `json:"environment"`
}

// Health reports 503 when the identity directory or the session store is
// unreachable, since neither login nor session resume can work without them.
func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Database:    "disabled",
		Cache:       "disabled",
		Environment: h.cfg.Environment,
	}

	if h.db != nil {
		resp.Database = h.probe(h.db.Ping(ctx), "database")
	}
	if h.cache != nil {
		resp.Cache = h.probe(h.cache.Ping(ctx).Err(), "redis")
	}

	status := http.StatusOK
	if resp.Database == "error" || resp.Cache == "error" {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (h HandlerSet) probe(err error, name string) string {
	if err != nil {
		h.log.Error().Err(err).Str("dependency", name).Msg("health probe failed")
		return "error"
	}
	return "ok"
}
