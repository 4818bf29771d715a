package push

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrGone marks a subscription the push service reports as permanently invalid.
var ErrGone = errors.New("push: subscription gone")

// TransientDeliveryError is any other delivery failure. The subscription is kept.
type TransientDeliveryError struct {
	StatusCode int
	Err        error
}

func (e *TransientDeliveryError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("push: delivery failed with status %d: %v", e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("push: delivery failed: %v", e.Err)
	default:
		return fmt.Sprintf("push: delivery failed with status %d", e.StatusCode)
	}
}

func (e *TransientDeliveryError) Unwrap() error {
	return e.Err
}

// IsGone reports whether err means the subscription should be pruned.
func IsGone(err error) bool {
	return errors.Is(err, ErrGone)
}

// classifyStatus maps a push service response code to a delivery outcome.
func classifyStatus(status int, detail string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound, status == http.StatusGone:
		return fmt.Errorf("%w: status %d", ErrGone, status)
	default:
		var err error
		if detail != "" {
			err = errors.New(detail)
		}
		return &TransientDeliveryError{StatusCode: status, Err: err}
	}
}
