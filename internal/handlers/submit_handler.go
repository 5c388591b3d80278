package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IamSanjayGawai/eventually-consistent-form/internal/idempotency"
	"github.com/IamSanjayGawai/eventually-consistent-form/internal/simulator"
	"github.com/IamSanjayGawai/eventually-consistent-form/internal/validation"
)

// RequestIDHeader carries the client-derived idempotency key. Every retry of
// one logical submission must present the same value.
const RequestIDHeader = "X-Request-ID"

// HandlerConfig groups dependencies for the submission API.
type HandlerConfig struct {
	Simulator *simulator.Simulator
}

// RegisterRoutes registers the submission endpoints.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	r.POST("/api/submit", func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_request_id"})
			return
		}

		var req validation.SubmitRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		res := cfg.Simulator.Submit(requestID, req.Email, req.Amount)
		switch res.Kind {
		case simulator.ResultSuccess:
			c.JSON(http.StatusOK, gin.H{
				"message":   "submission processed",
				"requestId": res.Record.RequestID,
				"email":     res.Record.Email,
				"amount":    res.Record.Amount,
				"timestamp": res.Record.Timestamp.Format(time.RFC3339Nano),
			})

		case simulator.ResultTransient:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":      "service temporarily unavailable",
				"requestId":  res.Record.RequestID,
				"retryAfter": res.RetryAfter.Milliseconds(),
			})

		case simulator.ResultDelayed:
			c.JSON(http.StatusAccepted, gin.H{
				"message":        "submission accepted, completing asynchronously",
				"requestId":      res.Record.RequestID,
				"email":          res.Record.Email,
				"amount":         res.Record.Amount,
				"estimatedDelay": res.EstimatedDelay.Milliseconds(),
			})
		}
	})

	r.GET("/api/status/:requestId", func(c *gin.Context) {
		requestID := c.Param("requestId")
		rec, ok := cfg.Simulator.Status(requestID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown request id"})
			return
		}
		body := gin.H{
			"requestId": rec.RequestID,
			"status":    rec.Status,
			"email":     rec.Email,
			"amount":    rec.Amount,
		}
		if rec.Status == idempotency.StatusSuccess {
			body["timestamp"] = rec.Timestamp.Format(time.RFC3339Nano)
		}
		c.JSON(http.StatusOK, body)
	})
}
