package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeMissingRequired, http.StatusBadRequest},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeUserNotFound, http.StatusNotFound},
		{ErrCodeUserAlreadyExists, http.StatusConflict},
		{ErrCodeRateLimitExceeded, http.StatusTooManyRequests},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorCodeToHTTPStatus(tt.code))
		})
	}
}

func TestWrapAndInspect(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := fmt.Errorf("create account: %w", InternalWrap(cause, "failed to create account"))

	assert.True(t, IsCode(err, ErrCodeInternal))
	assert.True(t, IsKind(err, KindInternal))
	assert.Equal(t, ErrCodeInternal, GetCode(err))
	assert.ErrorIs(t, err, cause)

	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
	assert.True(t, IsKind(fmt.Errorf("plain"), KindInternal))
	assert.False(t, IsKind(nil, KindInternal))
}

func TestRenderError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        Validation("Invalid email format"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid email format",
		},
		{
			name:       "wrapped conflict",
			err:        fmt.Errorf("register: %w", New(ErrCodeUserAlreadyExists, "Email already in use")),
			wantStatus: http.StatusConflict,
			wantMsg:    "Email already in use",
		},
		{
			name:       "internal hides cause",
			err:        InternalWrap(fmt.Errorf("pq: relation does not exist"), "failed to list accounts"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Server error",
		},
		{
			name:       "unstructured",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/admin/users", nil)

			RenderError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}
