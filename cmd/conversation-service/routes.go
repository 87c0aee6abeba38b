package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drivethru-ai/conversation-core/internal/metrics"
	"github.com/drivethru-ai/conversation-core/internal/orchestrator"
	"github.com/drivethru-ai/conversation-core/pkg/apperrors"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

// turnRequest is the Turn API's wire shape: one utterance for one session,
// routed to exactly one restaurant.
type turnRequest struct {
	SessionID    string `json:"session_id" binding:"required"`
	RestaurantID int64  `json:"restaurant_id" binding:"required"`
	Utterance    string `json:"utterance" binding:"required"`
}

type turnResponseBody struct {
	Success      bool       `json:"success"`
	ResponseText string     `json:"response_text"`
	AudioURL     string     `json:"audio_url,omitempty"`
	Intent       string     `json:"intent"`
	State        string     `json:"target_state"`
	Order        any        `json:"order_snapshot"`
	Error        *turnError `json:"error,omitempty"`
}

type turnError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// registerRoutes wires the Turn API behind /api/v1/turns. jwtSigningSecret
// gates the turns endpoint only; health and metrics stay open for load
// balancer probes and the Prometheus scraper respectively.
func registerRoutes(engine *gin.Engine, orch *orchestrator.Orchestrator, m *metrics.Metrics, jwtSigningSecret string, log *logger.Logger) {
	engine.GET("/api/v1/health", handleHealth)
	engine.GET("/metrics", gin.WrapH(m.Handler()))

	api := engine.Group("/api/v1")
	api.Use(metricsMiddleware(m))
	api.Use(jwtAuth(jwtSigningSecret))
	{
		api.POST("/turns", handleTurn(orch, log))
	}
}

// metricsMiddleware records ObserveHTTPRequest for every /api/v1 call,
// reading the response status off gin's own ResponseWriter rather than the
// wrapping statusWriter internal/metrics.Middleware uses for a bare
// net/http.Handler.
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

func handleTurn(orch *orchestrator.Orchestrator, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req turnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if claimed, ok := c.Get("restaurant_id"); ok {
			if id, _ := claimed.(int64); id != req.RestaurantID {
				c.JSON(http.StatusForbidden, gin.H{"error": "restaurant_id does not match the authenticated restaurant"})
				return
			}
		}

		resp, err := orch.HandleTurn(c.Request.Context(), orchestrator.TurnRequest{
			SessionID:    req.SessionID,
			RestaurantID: req.RestaurantID,
			Utterance:    req.Utterance,
		})
		if err != nil {
			log.WithError(err).Error("turn handling failed for session %s", req.SessionID)
			body := turnResponseBody{
				Success:      false,
				ResponseText: "Sorry, something went wrong on our end. Could you try that again?",
				Error:        &turnError{Category: string(apperrors.System), Code: string(apperrors.CodeInternalError), Message: "internal error, please try again"},
			}
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				body.Error.Category = string(appErr.Type)
				body.Error.Code = string(appErr.Code)
			}
			c.JSON(http.StatusInternalServerError, body)
			return
		}

		c.JSON(http.StatusOK, turnResponseBody{
			Success:      true,
			ResponseText: resp.ResponseText,
			AudioURL:     resp.AudioURL,
			Intent:       string(resp.Intent),
			State:        string(resp.State),
			Order:        resp.Order,
		})
	}
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "conversation-service", "time": time.Now().UTC().Format(time.RFC3339)})
}
