package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}
	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}
	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrNotFound
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestNewValidationMatchesSentinel(t *testing.T) {
	err := NewValidation("mood is required")
	if err.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
	if !IsValidation(err) {
		t.Fatal("expected validation error to match ErrValidation")
	}

	wrapped := fmt.Errorf("record mood: %w", err)
	if !IsValidation(wrapped) {
		t.Fatal("expected wrapped validation error to match ErrValidation")
	}
	if IsValidation(NewBadRequest("bad json")) {
		t.Fatal("bad request must not be reported as validation")
	}
}

func TestNewStorageKeepsInternal(t *testing.T) {
	cause := stdErrors.New("disk full")
	err := NewStorage("could not save mood", cause)

	if err.Code != ErrStorage.Code {
		t.Fatalf("expected %s, got %s", ErrStorage.Code, err.Code)
	}
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected storage error to unwrap to its cause")
	}
	if !stdErrors.Is(err, ErrStorage) {
		t.Fatal("expected storage error to match ErrStorage")
	}
	if err.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("invalid payload")
	if err.Code != ErrBadRequest.Code {
		t.Fatalf("expected %s, got %s", ErrBadRequest.Code, err.Code)
	}
	if err.Message != "invalid payload" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
	if err.StatusCode != ErrBadRequest.StatusCode {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
}

func TestWrapHidesCauseFromClients(t *testing.T) {
	err := Wrap(stdErrors.New("sqlite locked"), "failed to send test notification")

	if !stdErrors.Is(err, ErrInternalServer) {
		t.Fatal("expected wrapped error to match ErrInternalServer")
	}
	if err.Message != "failed to send test notification" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
	if ErrInternalServer.Internal != nil || ErrInternalServer.Message != "Internal server error" {
		t.Fatal("expected sentinel to remain unchanged")
	}
}
