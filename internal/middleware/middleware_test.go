package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
)

func echoMember() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetMember(r.Context())))
	})
}

func TestRequireAuthHTTP(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate("Alice")
	require.NoError(t, err)

	handler := RequireAuthHTTP(jwtManager, echoMember())

	tests := []struct {
		name       string
		method     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "anonymous read", method: http.MethodGet, wantStatus: http.StatusOK, wantBody: ""},
		{name: "authenticated read", method: http.MethodGet, header: "Bearer " + token, wantStatus: http.StatusOK, wantBody: "Alice"},
		{name: "authenticated write", method: http.MethodPost, header: "Bearer " + token, wantStatus: http.StatusOK, wantBody: "Alice"},
		{name: "anonymous write", method: http.MethodPost, wantStatus: http.StatusUnauthorized},
		{name: "bad token write", method: http.MethodPost, header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/groups/g/payments", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), "error")
			}
		})
	}
}

func TestHTTPLogging_PassesThroughStatus(t *testing.T) {
	handler := HTTPLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestWithMember(t *testing.T) {
	ctx := WithMember(context.Background(), "Bob")
	assert.Equal(t, "Bob", GetMember(ctx))
	assert.Empty(t, GetMember(context.Background()))
}

func TestRequireAuth_Interceptor(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate("Alice")
	require.NoError(t, err)

	var seen string
	next := connect.UnaryFunc(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		seen = GetMember(ctx)
		return connect.NewResponse(&struct{}{}), nil
	})
	call := RequireAuth(jwtManager)(next)

	req := connect.NewRequest(&struct{}{})
	_, err = call(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	req.Header().Set("Authorization", "Bearer "+token)
	_, err = call(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Alice", seen)

	req.Header().Set("Authorization", "Bearer broken")
	_, err = call(context.Background(), req)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}

func TestLoggingInterceptor_Levels(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		name      string
		err       error
		wantLevel string
		wantCode  string
	}{
		{"ok", nil, "INFO", ""},
		{"client error", connect.NewError(connect.CodeInvalidArgument, errors.New("bad split")), "WARN", "invalid_argument"},
		{"server error", connect.NewError(connect.CodeInternal, errors.New("disk full")), "ERROR", "internal"},
		{"plain error", errors.New("boom"), "ERROR", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			next := connect.UnaryFunc(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return connect.NewResponse(&struct{}{}), nil
			})

			_, err := LoggingInterceptor()(next)(WithMember(context.Background(), "Bob"), connect.NewRequest(&struct{}{}))
			assert.Equal(t, tt.err, err)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "Bob", entry["member"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, entry["code"])
			} else {
				assert.NotContains(t, entry, "code")
			}
		})
	}
}
