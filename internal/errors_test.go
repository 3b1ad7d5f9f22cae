package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestStorageError(t *testing.T) {
	originalErr := errors.New("permission denied")
	err := &StorageError{
		Key: "messages",
		Op:  "put",
		Err: originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "storage error") {
		t.Errorf("StorageError.Error() should contain 'storage error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "put messages") {
		t.Errorf("StorageError.Error() should contain op and key, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("StorageError.Unwrap() should return original error")
	}
}

func TestParseError(t *testing.T) {
	originalErr := errors.New("invalid JSON")
	err := &ParseError{
		Source: "sqlite",
		Key:    "messages",
		Err:    originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "parse error") {
		t.Errorf("ParseError.Error() should contain 'parse error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "sqlite") {
		t.Errorf("ParseError.Error() should contain source, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("ParseError.Unwrap() should return original error")
	}
}

func TestCompletionError(t *testing.T) {
	tests := []struct {
		name    string
		err     *CompletionError
		want    string
		notWant string
	}{
		{
			name: "with status",
			err:  &CompletionError{Provider: "openai", StatusCode: 500, Err: errors.New("boom")},
			want: "completion error [openai] status 500: boom",
		},
		{
			name:    "transport failure",
			err:     &CompletionError{Provider: "openai", Err: errors.New("dial tcp: refused")},
			want:    "completion error [openai]: dial tcp: refused",
			notWant: "status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if tt.notWant != "" && strings.Contains(got, tt.notWant) {
				t.Errorf("Error() = %q should not contain %q", got, tt.notWant)
			}
		})
	}
}

func TestCompletionErrorWrapsMalformed(t *testing.T) {
	err := error(&CompletionError{Provider: "openai", StatusCode: 200, Err: ErrMalformedResponse})

	if !errors.Is(err, ErrMalformedResponse) {
		t.Error("errors.Is should see ErrMalformedResponse through CompletionError")
	}

	var ce *CompletionError
	if !errors.As(err, &ce) || ce.StatusCode != 200 {
		t.Errorf("errors.As should recover the CompletionError, got %+v", ce)
	}
}

func TestAuthError(t *testing.T) {
	err := &AuthError{Reason: "Invalid username or password"}
	if err.Error() != "Invalid username or password" {
		t.Errorf("AuthError.Error() = %q", err.Error())
	}
}
