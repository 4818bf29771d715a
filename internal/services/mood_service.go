package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/moodtracker/internal/models"
	"github.com/charlesng35/moodtracker/internal/push"
	"github.com/charlesng35/moodtracker/internal/realtime"
	apperrors "github.com/charlesng35/moodtracker/pkg/errors"
	"github.com/charlesng35/moodtracker/pkg/logger"
	"github.com/charlesng35/moodtracker/pkg/metrics"
	"github.com/charlesng35/moodtracker/pkg/timeago"
)

const (
	// DefaultHistoryLimit applies when callers do not ask for a positive limit.
	DefaultHistoryLimit = 10
	// MaxHistoryLimit caps history queries.
	MaxHistoryLimit = 100
)

// Notifier fans a payload out to every stored subscription.
type Notifier interface {
	DispatchAll(ctx context.Context, payload push.NotificationPayload) (push.Result, error)
}

// MoodDTO is the API shape of a mood event.
type MoodDTO struct {
	Mood      models.Mood `json:"mood"`
	Emoji     string      `json:"emoji"`
	Timestamp time.Time   `json:"timestamp"`
	TimeAgo   string      `json:"timeAgo"`
}

// MoodOption is one selectable mood with its default glyph.
type MoodOption struct {
	Mood  models.Mood `json:"mood"`
	Emoji string      `json:"emoji"`
}

// RecordMoodInput captures a new mood selection.
type RecordMoodInput struct {
	Mood  string
	Emoji string
	Owner string
}

// MoodService records moods and fans each new one out to live viewers and
// push subscribers.
type MoodService struct {
	db          *gorm.DB
	broadcaster realtime.Broadcaster
	notifier    Notifier
	composer    push.Composer
	now         func() time.Time
	log         *zap.Logger

	pending sync.WaitGroup
}

// NewMoodService constructs a MoodService. The broadcaster and notifier are
// optional; without them the matching side effect is skipped.
func NewMoodService(db *gorm.DB, broadcaster realtime.Broadcaster, notifier Notifier, composer push.Composer) (*MoodService, error) {
	if db == nil {
		return nil, errors.New("mood service: db is required")
	}
	return &MoodService{
		db:          db,
		broadcaster: broadcaster,
		notifier:    notifier,
		composer:    composer,
		now:         time.Now,
		log:         logger.WithModule("mood"),
	}, nil
}

// RecordMood appends a mood event, broadcasts it on the mood stream and
// dispatches a push notification in the background. Both side effects are
// best effort and independent of each other.
func (s *MoodService) RecordMood(ctx context.Context, input RecordMoodInput) (*MoodDTO, error) {
	ctx = ensureContext(ctx)

	mood := models.Mood(strings.TrimSpace(input.Mood))
	if !mood.Valid() {
		return nil, apperrors.NewValidation(fmt.Sprintf("invalid mood %q", input.Mood))
	}
	if strings.TrimSpace(input.Emoji) == "" {
		return nil, apperrors.NewValidation("emoji is required")
	}

	event := models.MoodEvent{
		Mood:      mood,
		Emoji:     input.Emoji,
		Timestamp: s.now().UTC(),
		Owner:     normaliseOwner(input.Owner),
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, apperrors.NewStorage("failed to save mood", fmt.Errorf("mood service: create event: %w", err))
	}
	metrics.MoodsRecorded.WithLabelValues(string(mood)).Inc()

	dto := s.toDTO(event)
	s.broadcast(dto)
	s.notify(ctx, event)

	return &dto, nil
}

// CurrentMood returns the newest event, or nil when nothing was recorded yet.
func (s *MoodService) CurrentMood(ctx context.Context) (*MoodDTO, error) {
	ctx = ensureContext(ctx)

	var event models.MoodEvent
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Order("created_at DESC").
		Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorage("failed to load current mood", fmt.Errorf("mood service: current: %w", err))
	}

	dto := s.toDTO(event)
	return &dto, nil
}

// History returns up to limit events, newest first. Non-positive limits fall
// back to DefaultHistoryLimit; larger ones are capped at MaxHistoryLimit.
func (s *MoodService) History(ctx context.Context, limit int) ([]MoodDTO, error) {
	ctx = ensureContext(ctx)
	limit = clampLimit(limit, DefaultHistoryLimit, MaxHistoryLimit)

	var events []models.MoodEvent
	if err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, apperrors.NewStorage("failed to load mood history", fmt.Errorf("mood service: history: %w", err))
	}

	history := make([]MoodDTO, 0, len(events))
	for _, event := range events {
		history = append(history, s.toDTO(event))
	}
	return history, nil
}

// Moods lists the selectable moods in display order.
func (s *MoodService) Moods() []MoodOption {
	all := models.AllMoods()
	options := make([]MoodOption, 0, len(all))
	for _, mood := range all {
		options = append(options, MoodOption{Mood: mood, Emoji: mood.DefaultEmoji()})
	}
	return options
}

// Wait blocks until background notifications started by RecordMood finish.
func (s *MoodService) Wait() {
	s.pending.Wait()
}

func (s *MoodService) broadcast(dto MoodDTO) {
	if s.broadcaster == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("mood broadcast panicked", zap.Any("panic", rec))
		}
	}()

	s.broadcaster.BroadcastStream(realtime.StreamMood, realtime.Message{
		Event: realtime.EventMoodUpdated,
		Data:  dto,
	})
}

func (s *MoodService) notify(ctx context.Context, event models.MoodEvent) {
	if s.notifier == nil {
		return
	}

	payload := s.composer.MoodPayload(event)
	// The request may finish before delivery does.
	detached := context.WithoutCancel(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("mood notification panicked", zap.Any("panic", rec))
			}
		}()

		if _, err := s.notifier.DispatchAll(detached, payload); err != nil {
			s.log.Warn("mood notification failed", zap.String("mood", string(event.Mood)), zap.Error(err))
		}
	}()
}

func (s *MoodService) toDTO(event models.MoodEvent) MoodDTO {
	return MoodDTO{
		Mood:      event.Mood,
		Emoji:     event.Emoji,
		Timestamp: event.Timestamp,
		TimeAgo:   timeago.Format(event.Timestamp, s.now()),
	}
}
