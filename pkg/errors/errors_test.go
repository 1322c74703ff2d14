package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeDuplicateKey, "duplicate id %q", "a")

	if err.Code != ErrCodeDuplicateKey {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeDuplicateKey)
	}

	if err.Message != `duplicate id "a"` {
		t.Errorf("Message = %v, want %v", err.Message, `duplicate id "a"`)
	}

	expected := `DUPLICATE_KEY: duplicate id "a"`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(ErrCodeInvalidTree, cause, "decode tree")

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeNoToggle, "x"), ErrCodeNoToggle, true},
		{"non-matching code", New(ErrCodeNoToggle, "x"), ErrCodeNodeNotFound, false},
		{"outer code wins", Wrap(ErrCodeInvalidTree, New(ErrCodeDuplicateKey, "inner"), "outer"), ErrCodeInvalidTree, true},
		{"plain error", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil error", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeNodeNotFound, "x")); got != ErrCodeNodeNotFound {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeNodeNotFound)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
	if got := GetCode(nil); got != "" {
		t.Errorf("GetCode(nil) = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "friendly message")); got != "friendly message" {
		t.Errorf("UserMessage() = %v", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() = %v", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeDuplicateKey, "x"), 400},
		{New(ErrCodeNodeNotFound, "x"), 404},
		{New(ErrCodeSessionNotFound, "x"), 404},
		{New(ErrCodeNoToggle, "x"), 409},
		{New(ErrCodeUnsupported, "x"), 501},
		{errors.New("plain"), 500},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
