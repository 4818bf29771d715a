package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/charlesng35/moodtracker/pkg/errors"
	"github.com/charlesng35/moodtracker/pkg/response"
)

const (
	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

// DeviceQRHandler renders a QR code pointing at the app so a phone can open it
// and subscribe.
type DeviceQRHandler struct {
	url string
}

// NewDeviceQRHandler constructs the handler for the given public URL.
func NewDeviceQRHandler(publicURL string) (*DeviceQRHandler, error) {
	publicURL = strings.TrimSpace(publicURL)
	if publicURL == "" {
		return nil, fmt.Errorf("device qr handler: public url is required")
	}
	return &DeviceQRHandler{url: publicURL}, nil
}

// PNG writes the QR code image.
func (h *DeviceQRHandler) PNG(c *gin.Context) {
	size := parseIntQuery(c, "size", defaultQRSize)
	if size < minQRSize {
		size = minQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	png, err := qrcode.Encode(h.url, qrcode.Medium, size)
	if err != nil {
		response.Error(c, errors.Wrap(err, "failed to render QR code"))
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
