package auth

import (
	"strings"

	apperrors "github.com/target/fitmatch-auth/internal/errors"
)

// SignupState is the step of the email signup flow.
type SignupState string

const (
	SignupCollectingCredentials    SignupState = "collecting_credentials"
	SignupAwaitingVerificationCode SignupState = "awaiting_verification_code"
	SignupVerified                 SignupState = "verified"
)

// SignupDraft is the credential form submitted to request a verification code.
type SignupDraft struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// Validation messages surfaced to the user.
const (
	MsgFieldsRequired   = "email, password and password confirmation are required"
	MsgPasswordMismatch = "passwords do not match"
	MsgCodeRequired     = "verification code is required"
)

// Validate checks the draft before any network call.
// Passwords are compared verbatim; only the email is trimmed.
func (d SignupDraft) Validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return apperrors.ValidationField("email", MsgFieldsRequired)
	}
	if d.Password == "" {
		return apperrors.ValidationField("password", MsgFieldsRequired)
	}
	if d.ConfirmPassword == "" {
		return apperrors.ValidationField("confirm_password", MsgFieldsRequired)
	}
	if d.Password != d.ConfirmPassword {
		return apperrors.ValidationField("confirm_password", MsgPasswordMismatch)
	}
	return nil
}

// NormalizedEmail returns the trimmed email.
func (d SignupDraft) NormalizedEmail() string {
	return strings.TrimSpace(d.Email)
}
