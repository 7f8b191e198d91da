package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/spacesedan/sentilens/internal/models"
	"github.com/spacesedan/sentilens/internal/sentiment"
)

const welcomeMessage = "Advanced Sentiment Analysis Microservice"

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": welcomeMessage})
}

func (s *Server) handleAnalyze(c echo.Context) error {
	var req models.AnalysisRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return newError(http.StatusUnprocessableEntity, detailInvalidBody, err)
	}
	if req.Text == nil {
		return newError(http.StatusUnprocessableEntity, detailInvalidBody, nil)
	}
	text := *req.Text

	slog.Info("[API] Analyzing text",
		slog.String("client", c.RealIP()),
		slog.Int("text_length", len(text)))

	if sentiment.IsBlank(text) {
		return newError(http.StatusBadRequest, detailEmptyText, nil)
	}

	resp, err := s.analyzer.Analyze(c.Request().Context(), text)
	if err != nil {
		if errors.Is(err, sentiment.ErrEmptyText) {
			return newError(http.StatusBadRequest, detailEmptyText, err)
		}
		return newError(http.StatusInternalServerError, detailInternal, err)
	}

	if err := c.JSON(http.StatusOK, resp); err != nil {
		return err
	}

	if s.sinks.Enabled() {
		s.sinks.Dispatch(models.AnalysisRecord{
			AnalysisID:       uuid.NewString(),
			ClientIP:         c.RealIP(),
			OriginalText:     text,
			PlainText:        sentiment.ConvertMarkdownToText(text),
			AnalysisResponse: resp,
			CreatedAt:        time.Now().UTC(),
		})
	}
	return nil
}

type healthResponse struct {
	Status       string          `json:"status"`
	Dependencies map[string]bool `json:"dependencies,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := healthResponse{Status: "ok"}
	if s.health != nil {
		resp.Dependencies = s.health.Snapshot()
		for _, healthy := range resp.Dependencies {
			if !healthy {
				resp.Status = "degraded"
			}
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}
