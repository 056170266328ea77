package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeProtocol,
				Message: "invalid code",
			},
			want: "invalid code",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeNetwork,
				Message: "signup request failed",
				Cause:   errors.New("connection refused"),
			},
			want: "signup request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Network(cause, "revoke token")

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(%v, cause) = false, want true", err)
	}
}

func TestWrap_Nil(t *testing.T) {
	if err := Wrap(nil, ErrCodeNetwork, "ignored"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestCodePredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "validation", err: Validation("bad"), check: IsValidation},
		{name: "network", err: Network(errors.New("x"), "net"), check: IsNetwork},
		{name: "protocol", err: Protocol(400, "bad"), check: IsProtocol},
		{name: "conflict", err: Conflict("busy"), check: IsConflict},
		{name: "invalid state", err: InvalidStatef("not in %s", "x"), check: IsInvalidState},
		{name: "not found", err: NotFound("missing"), check: IsNotFound},
		{name: "canceled", err: Wrap(errors.New("x"), ErrCodeCanceled, "stop"), check: IsCanceled},
		{name: "wrapped with fmt", err: fmt.Errorf("outer: %w", Protocol(500, "boom")), check: IsProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("predicate returned false for %v", tt.err)
			}
		})
	}

	if IsValidation(errors.New("plain")) {
		t.Error("IsValidation(plain) = true, want false")
	}
}

func TestGetCodeAndField(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ValidationField("email", "required"))
	if got := GetCode(err); got != ErrCodeValidation {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeValidation)
	}
	if got := GetField(err); got != "email" {
		t.Errorf("GetField() = %q, want email", got)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "app error drops cause", err: Network(errors.New("dial tcp"), "network unavailable"), want: "network unavailable"},
		{name: "wrapped app error", err: fmt.Errorf("verify: %w", Protocol(400, "invalid code")), want: "invalid code"},
		{name: "plain error", err: errors.New("plain"), want: "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
