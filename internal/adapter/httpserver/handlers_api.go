package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/feedback-pulse/internal/app"
	"github.com/pscheid92/feedback-pulse/internal/domain"
	apperrors "github.com/pscheid92/feedback-pulse/internal/platform/errors"
)

type analyzeRequest struct {
	Text string `json:"text" validate:"required"`
}

type suggestRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

type suggestResponse struct {
	Suggestion string `json:"suggestion"`
}

type feedbackRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Feedback string `json:"feedback" validate:"required,max=5000"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
}

type feedErrorResponse struct {
	Error string        `json:"error"`
	Posts []domain.Post `json:"posts"`
}

// bindAndValidate decodes a JSON body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperrors.ValidationError("invalid JSON body").WithDetails(err.Error())
	}
	return c.Validate(req)
}

func (s *Server) handleAnalyze(c echo.Context) error {
	var req analyzeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	scores, err := s.app.AnalyzeText(c.Request().Context(), req.Text)
	if err != nil {
		return fmt.Errorf("failed to analyze text: %w", err)
	}

	return c.JSON(http.StatusOK, scores)
}

func (s *Server) handleSuggest(c echo.Context) error {
	var req suggestRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	suggestion, err := s.app.Suggest(c.Request().Context(), req.Prompt)
	if err != nil {
		return fmt.Errorf("failed to generate suggestion: %w", err)
	}

	return c.JSON(http.StatusOK, suggestResponse{Suggestion: suggestion})
}

// handlePosts keeps the feed's own failure shape: an error plus an empty list.
func (s *Server) handlePosts(c echo.Context) error {
	ctx := c.Request().Context()

	posts, err := s.app.Posts(ctx)
	if err != nil {
		structured := toStructuredError(err)
		logError(c, structured)
		return c.JSON(http.StatusInternalServerError, feedErrorResponse{
			Error: structured.Message,
			Posts: []domain.Post{},
		})
	}

	if posts == nil {
		posts = []domain.Post{}
	}
	slog.DebugContext(ctx, "Served feed", "count", len(posts))
	return c.JSON(http.StatusOK, posts)
}

func (s *Server) handleListFeedback(c echo.Context) error {
	records, err := s.app.ListFeedback(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list feedback", err).WithDetails(err.Error())
	}
	if records == nil {
		records = []domain.Feedback{}
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) handleSubmitFeedback(c echo.Context) error {
	var req feedbackRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	created, err := s.app.SubmitFeedback(c.Request().Context(), app.FeedbackInput{
		Name:     req.Name,
		Feedback: req.Feedback,
		Rating:   req.Rating,
	})
	if err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	return c.JSON(http.StatusCreated, created)
}
