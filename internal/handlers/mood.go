package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/moodtracker/internal/services"
	"github.com/charlesng35/moodtracker/pkg/response"
)

// MoodRecorder is the mood log the handler reads and writes.
type MoodRecorder interface {
	RecordMood(ctx context.Context, input services.RecordMoodInput) (*services.MoodDTO, error)
	CurrentMood(ctx context.Context) (*services.MoodDTO, error)
	History(ctx context.Context, limit int) ([]services.MoodDTO, error)
	Moods() []services.MoodOption
}

// MoodHandler exposes the mood log over HTTP.
type MoodHandler struct {
	moods MoodRecorder
}

// NewMoodHandler constructs a mood handler.
func NewMoodHandler(moods MoodRecorder) (*MoodHandler, error) {
	if moods == nil {
		return nil, fmt.Errorf("mood handler: mood service is required")
	}
	return &MoodHandler{moods: moods}, nil
}

type setMoodRequest struct {
	Mood   string `json:"mood" validate:"required,notblank"`
	Emoji  string `json:"emoji" validate:"required,notblank"`
	UserID string `json:"userId" validate:"max=64"`
}

// Current returns the latest mood, or null when none is recorded.
func (h *MoodHandler) Current(c *gin.Context) {
	mood, err := h.moods.CurrentMood(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"mood": mood})
}

// Set records a new mood.
func (h *MoodHandler) Set(c *gin.Context) {
	var req setMoodRequest
	if !bindAndValidate(c, &req) {
		return
	}

	mood, err := h.moods.RecordMood(requestContext(c), services.RecordMoodInput{
		Mood:  req.Mood,
		Emoji: req.Emoji,
		Owner: req.UserID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"mood": mood})
}

// History returns recent moods, newest first.
func (h *MoodHandler) History(c *gin.Context) {
	limit := parseIntQuery(c, "limit", services.DefaultHistoryLimit)

	history, err := h.moods.History(requestContext(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	if history == nil {
		history = []services.MoodDTO{}
	}

	response.Success(c, http.StatusOK, gin.H{"history": history})
}

// Options lists the selectable moods with their default emoji.
func (h *MoodHandler) Options(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"moods": h.moods.Moods()})
}
