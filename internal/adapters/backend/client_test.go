package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/target/fitmatch-auth/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL + "/"})
	require.NoError(t, err)
	return client
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL is required")

	_, err = NewClient(Config{BaseURL: "https://api.fitmatch.app", ErrorMessagePath: "message ||"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile error message path")
}

func TestClient_RequestSignup(t *testing.T) {
	var (
		gotPath      string
		gotBody      map[string]string
		gotRequestID string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-ID")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"code sent"}`))
	})

	err := client.RequestSignup(context.Background(), "a@b.com", "p")

	require.NoError(t, err)
	assert.Equal(t, "/auth/signup-request", gotPath)
	assert.Equal(t, map[string]string{"email": "a@b.com", "password": "p"}, gotBody)
	_, parseErr := uuid.Parse(gotRequestID)
	assert.NoError(t, parseErr)
}

func TestClient_VerifySignup(t *testing.T) {
	var gotBody map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/signup-verify", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, client.VerifySignup(context.Background(), "a@b.com", "123456"))
	assert.Equal(t, map[string]string{"email": "a@b.com", "code": "123456"}, gotBody)
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		verify  bool
		wantMsg string
	}{
		{name: "server message", status: http.StatusBadRequest, body: `{"message":"invalid code"}`, verify: true, wantMsg: "invalid code"},
		{name: "error description", status: http.StatusUnauthorized, body: `{"error":"x","error_description":"expired code"}`, verify: true, wantMsg: "expired code"},
		{name: "non-json body", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, verify: true, wantMsg: "verification failed"},
		{name: "empty body", status: http.StatusInternalServerError, body: ``, verify: false, wantMsg: "could not send verification code"},
		{name: "non-string message", status: http.StatusConflict, body: `{"message":{"code":1}}`, verify: false, wantMsg: "could not send verification code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			var err error
			if tt.verify {
				err = client.VerifySignup(context.Background(), "a@b.com", "000000")
			} else {
				err = client.RequestSignup(context.Background(), "a@b.com", "p")
			}

			require.Error(t, err)
			assert.True(t, apperrors.IsProtocol(err))
			assert.Equal(t, tt.wantMsg, err.Error())

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.status, appErr.Status)
		})
	}
}

func TestClient_CustomErrorMessagePath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"detail":"email already registered"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, ErrorMessagePath: "errors[0].detail"})
	require.NoError(t, err)

	err = client.RequestSignup(context.Background(), "a@b.com", "p")
	require.Error(t, err)
	assert.Equal(t, "email already registered", err.Error())
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client, err := NewClient(Config{BaseURL: baseURL})
	require.NoError(t, err)

	err = client.RequestSignup(context.Background(), "a@b.com", "p")
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
	assert.Equal(t, "could not reach the FitMatch service", apperrors.UserMessage(err))
}
