package backend

// Package backend provides the HTTP adapter for the FitMatch backend signup endpoints.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	jmespath "github.com/jmespath-community/go-jmespath"
	apperrors "github.com/target/fitmatch-auth/internal/errors"
	"github.com/target/fitmatch-auth/internal/ports"
)

var _ ports.SignupBackend = (*Client)(nil)

const (
	signupRequestPath = "/auth/signup-request"
	signupVerifyPath  = "/auth/signup-verify"

	// DefaultErrorMessagePath selects the user-facing message from an error body.
	DefaultErrorMessagePath = "message || error_description || error"

	msgSignupRequestFailed = "could not send verification code"
	msgVerifyFailed        = "verification failed"
	msgUnreachable         = "could not reach the FitMatch service"

	maxResponseBytes = 1 << 20
)

// Config holds configuration for the backend client.
type Config struct {
	BaseURL string
	// ErrorMessagePath is a JMESPath expression evaluated against non-2xx JSON bodies.
	ErrorMessagePath string
	HTTPClient       *http.Client // Optional, defaults to a client with a 30s timeout
	Logger           *slog.Logger
}

// Client implements ports.SignupBackend over JSON/HTTP.
type Client struct {
	baseURL     string
	messagePath string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient validates the config and creates a backend client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("backend base URL is required")
	}

	path := strings.TrimSpace(cfg.ErrorMessagePath)
	if path == "" {
		path = DefaultErrorMessagePath
	}
	if _, err := jmespath.Compile(path); err != nil {
		return nil, fmt.Errorf("compile error message path %q: %w", path, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{baseURL: base, messagePath: path, httpClient: httpClient, logger: logger}, nil
}

type signupRequestBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupVerifyBody struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// RequestSignup asks the backend to email a verification code.
func (c *Client) RequestSignup(ctx context.Context, email, password string) error {
	return c.postJSON(ctx, signupRequestPath, signupRequestBody{Email: email, Password: password}, msgSignupRequestFailed)
}

// VerifySignup submits the emailed code to complete the signup.
func (c *Client) VerifySignup(ctx context.Context, email, code string) error {
	return c.postJSON(ctx, signupVerifyPath, signupVerifyBody{Email: email, Code: code}, msgVerifyFailed)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, fallback string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed", "path", path, "request_id", requestID, "error", err)
		return apperrors.Network(err, msgUnreachable)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.logger.DebugContext(ctx, "backend response", "path", path, "request_id", requestID, "status", resp.StatusCode)

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	if readErr != nil {
		return apperrors.Protocol(resp.StatusCode, fallback)
	}
	return apperrors.Protocol(resp.StatusCode, c.errorMessage(respBody, fallback))
}

// errorMessage extracts the server-provided message, falling back when the body
// is not JSON or the expression yields no string.
func (c *Client) errorMessage(body []byte, fallback string) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return fallback
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return fallback
	}
	res, err := jmespath.Search(c.messagePath, data)
	if err != nil {
		return fallback
	}
	if s, ok := res.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}
