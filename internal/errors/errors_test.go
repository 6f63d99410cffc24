package errors

import (
	"fmt"
	"testing"
)

func TestPackError_Error(t *testing.T) {
	err := &PackError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "item not found",
	}

	expected := "NOT_FOUND: item not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("mode must be one of: merge, replace")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "mode must be one of: merge, replace" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewEmptyInput(t *testing.T) {
	err := NewEmptyInput("label")

	if err.Code != ErrEmptyInput {
		t.Errorf("Code = %q, want %q", err.Code, ErrEmptyInput)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Details["field"] != "label" {
		t.Errorf("Details[field] = %v, want %q", err.Details["field"], "label")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("item", "custom-tech-hdmi-cable-carryOn")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "custom-tech-hdmi-cable-carryOn" {
		t.Errorf("Details[identifier] = %v", err.Details["identifier"])
	}
	if err.Details["kind"] != "item" {
		t.Errorf("Details[kind] = %v, want %q", err.Details["kind"], "item")
	}
}

func TestNewImmutableTemplate(t *testing.T) {
	err := NewImmutableTemplate("business-trip")

	if err.Code != ErrImmutableTemplate {
		t.Errorf("Code = %q, want %q", err.Code, ErrImmutableTemplate)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
}

func TestNewCancelled(t *testing.T) {
	err := NewCancelled("weather lookup")

	if err.Code != ErrCancelled {
		t.Errorf("Code = %q, want %q", err.Code, ErrCancelled)
	}
	if err.Status != 499 {
		t.Errorf("Status = %d, want 499", err.Status)
	}
	if err.Details["operation"] != "weather lookup" {
		t.Errorf("Details[operation] = %v", err.Details["operation"])
	}
}

func TestNewWeatherUnavailable(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		err := NewWeatherUnavailable("Oslo", fmt.Errorf("geocode failed"))

		if err.Code != ErrWeatherUnavailable {
			t.Errorf("Code = %q, want %q", err.Code, ErrWeatherUnavailable)
		}
		if err.Status != 502 {
			t.Errorf("Status = %d, want 502", err.Status)
		}
		if err.Message != `weather unavailable for "Oslo": geocode failed` {
			t.Errorf("Message = %q", err.Message)
		}
	})

	t.Run("without cause", func(t *testing.T) {
		err := NewWeatherUnavailable("Oslo", nil)
		if err.Message != `weather unavailable for "Oslo"` {
			t.Errorf("Message = %q", err.Message)
		}
	})
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		err := NewInternal(fmt.Errorf("database connection failed"))

		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Status != 500 {
			t.Errorf("Status = %d, want 500", err.Status)
		}
		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details["internal_error"] != "database connection failed" {
			t.Errorf("Details[internal_error] = %q", err.Details["internal_error"])
		}
	})

	t.Run("with nil", func(t *testing.T) {
		err := NewInternal(nil)
		if err.Details == nil {
			t.Error("Details should not be nil")
		}
	})
}

func TestIs(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		if !Is(NewNotFound("item", "x"), ErrNotFound) {
			t.Error("Is() = false, want true")
		}
	})

	t.Run("non-matching code", func(t *testing.T) {
		if Is(NewNotFound("item", "x"), ErrConflict) {
			t.Error("Is() = true, want false")
		}
	})

	t.Run("plain error", func(t *testing.T) {
		if Is(fmt.Errorf("plain error"), ErrNotFound) {
			t.Error("Is() = true, want false for plain error")
		}
	})

	t.Run("wrapped PackError", func(t *testing.T) {
		wrapped := fmt.Errorf("template[0]: %w", NewCancelled("weather lookup"))
		if !Is(wrapped, ErrCancelled) {
			t.Error("Is() = false, want true for wrapped PackError")
		}
	})
}
