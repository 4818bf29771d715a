package services

import (
	"context"
	"strings"

	"github.com/charlesng35/moodtracker/internal/models"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func normaliseOwner(owner string) string {
	return strings.TrimSpace(defaultIfEmpty(owner, models.DefaultOwner))
}

func clampLimit(limit, fallback, ceiling int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
