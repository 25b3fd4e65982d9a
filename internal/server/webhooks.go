package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 1 << 20

func (s *Server) HandleSigningWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		AbortWithError(c, newValidationError("body", "invalid_body", "unreadable body"))
		return
	}

	provider := c.Param("provider")
	if err := s.signingSvc.Ingest(c.Request.Context(), provider, c.Request.Header, body); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}
