package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	domainauth "github.com/target/fitmatch-auth/internal/domain/auth"
	apperrors "github.com/target/fitmatch-auth/internal/errors"
)

type signupOptions struct {
	Email string
}

func parseSignupFlags(args []string) (signupOptions, error) {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts signupOptions
	fs.StringVar(&opts.Email, "email", "", "Email address to register (prompted when empty)")

	if err := fs.Parse(args); err != nil {
		return signupOptions{}, err
	}
	return opts, nil
}

// runSignup drives the signup flow interactively. Validation failures and
// rejected codes re-prompt; an empty code goes back to credential entry.
func runSignup(cmdCtx *commandContext, args []string) error {
	opts, err := parseSignupFlags(args)
	if err != nil {
		return err
	}

	rt, err := openAuth(cmdCtx, "")
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	flow := rt.Signup
	email := opts.Email

	for flow.State() != domainauth.SignupVerified {
		switch flow.State() {
		case domainauth.SignupCollectingCredentials:
			draft, promptErr := promptDraft(cmdCtx, email)
			if promptErr != nil {
				return promptErr
			}
			email = ""
			if reqErr := flow.RequestCode(cmdCtx.Ctx, draft); reqErr != nil {
				if !apperrors.IsValidation(reqErr) {
					return fmt.Errorf("request verification code: %w", reqErr)
				}
				if err := writef(cmdCtx.Out, "%s\n", apperrors.UserMessage(reqErr)); err != nil {
					return err
				}
				continue
			}
			if err := writef(cmdCtx.Out, "We sent a verification code to %s.\n", flow.Email()); err != nil {
				return err
			}

		case domainauth.SignupAwaitingVerificationCode:
			code, promptErr := prompt(cmdCtx, "Verification code (empty to change email): ")
			if promptErr != nil {
				return promptErr
			}
			if code == "" {
				if backErr := flow.Back(); backErr != nil {
					return backErr
				}
				continue
			}
			if verifyErr := flow.VerifyCode(cmdCtx.Ctx, "", code); verifyErr != nil {
				if !apperrors.IsProtocol(verifyErr) && !apperrors.IsValidation(verifyErr) {
					return fmt.Errorf("verify code: %w", verifyErr)
				}
				if err := writef(cmdCtx.Out, "%s\n", apperrors.UserMessage(verifyErr)); err != nil {
					return err
				}
			}

		default:
			return fmt.Errorf("unexpected signup state %s", flow.State())
		}
	}

	return writeln(cmdCtx.Out, "Account verified. You can now sign in with `fitmatch-auth login`.")
}

func promptDraft(cmdCtx *commandContext, email string) (domainauth.SignupDraft, error) {
	var err error
	if email == "" {
		if email, err = prompt(cmdCtx, "Email: "); err != nil {
			return domainauth.SignupDraft{}, err
		}
	}
	password, err := promptSecret(cmdCtx, "Password: ")
	if err != nil {
		return domainauth.SignupDraft{}, err
	}
	confirm, err := promptSecret(cmdCtx, "Confirm password: ")
	if err != nil {
		return domainauth.SignupDraft{}, err
	}
	return domainauth.SignupDraft{Email: email, Password: password, ConfirmPassword: confirm}, nil
}

func prompt(cmdCtx *commandContext, label string) (string, error) {
	if err := writef(cmdCtx.Out, "%s", label); err != nil {
		return "", err
	}
	line, err := cmdCtx.In.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", errors.New("input closed before signup completed")
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptSecret reads a password without echo when a terminal reader is set.
func promptSecret(cmdCtx *commandContext, label string) (string, error) {
	if cmdCtx.ReadPassword == nil {
		return prompt(cmdCtx, label)
	}
	if err := writef(cmdCtx.Out, "%s", label); err != nil {
		return "", err
	}
	secret, err := cmdCtx.ReadPassword()
	// The terminal swallowed the newline along with the echo.
	if nlErr := writeln(cmdCtx.Out); nlErr != nil && err == nil {
		err = nlErr
	}
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return secret, nil
}
