package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/moodtracker/internal/models"
	"github.com/charlesng35/moodtracker/pkg/response"
)

const defaultReportLimit = 20

// ReportLister lists recent delivery reports.
type ReportLister interface {
	List(ctx context.Context, limit int) ([]models.DeliveryReport, error)
}

// ReportHandler exposes notification delivery reports.
type ReportHandler struct {
	reports ReportLister
}

// NewReportHandler constructs a report handler.
func NewReportHandler(reports ReportLister) (*ReportHandler, error) {
	if reports == nil {
		return nil, fmt.Errorf("report handler: report service is required")
	}
	return &ReportHandler{reports: reports}, nil
}

// List returns the most recent delivery reports.
func (h *ReportHandler) List(c *gin.Context) {
	rows, err := h.reports.List(requestContext(c), parseIntQuery(c, "limit", defaultReportLimit))
	if err != nil {
		response.Error(c, err)
		return
	}
	if rows == nil {
		rows = []models.DeliveryReport{}
	}
	response.Success(c, http.StatusOK, gin.H{"reports": rows})
}
