package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/duynguyendang/askdb/pkg/common/errors"
	"github.com/gin-gonic/gin"
)

type askRequest struct {
	Question string `json:"question"`
}

// handleAsk runs one conversation turn.
func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		handleError(c, fmt.Errorf("question: %w", errors.ErrInvalidInput))
		return
	}

	ans, err := s.svc.Ask(c.Request.Context(), question)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ans)
}

// handleClear resets the conversation.
func (s *Server) handleClear(c *gin.Context) {
	s.svc.Clear()
	c.Status(http.StatusNoContent)
}

// handleHistory returns the turn window and context snapshot.
func (s *Server) handleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.History())
}

// handleSchema returns the schema description fed to the model.
func (s *Server) handleSchema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"schema": s.svc.Schema()})
}

func handleError(c *gin.Context, err error) {
	appErr := errors.MapError(err)
	body := gin.H{"error": appErr.Message}
	if errors.IsTransient(err) {
		body["details"] = err.Error()
	}
	c.JSON(appErr.Code, body)
}
