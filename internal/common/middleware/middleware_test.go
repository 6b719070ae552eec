package middleware

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giveaway-tracker-bot/internal/common/errors"
)

func newRouter(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	log := zerolog.Nop()
	r.Use(RequestID(), ErrorHandler(log), Errors(log), BearerAuth(token, log))
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(errors.New(errors.ErrCodeGiveawayNotFound, "giveaway not found"))
	})
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(stderrors.New("boom")) })
	r.GET("/panic", func(c *gin.Context) { panic("bad") })
	return r
}

func do(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRequestIDPropagates(t *testing.T) {
	r := newRouter("")

	w := do(r, "/ok", map[string]string{"X-Request-ID": "req-1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

	w = do(r, "/ok", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestErrorsRendersAppError(t *testing.T) {
	r := newRouter("")

	w := do(r, "/missing", map[string]string{"X-Request-ID": "req-2"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, errors.ErrCodeGiveawayNotFound, resp.Error.Code)
	assert.Equal(t, "req-2", resp.RequestID)

	w = do(r, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errors.ErrCodeInternal, decode(t, w).Error.Code)
}

func TestPanicRecovered(t *testing.T) {
	w := do(newRouter(""), "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errors.ErrCodeInternal, decode(t, w).Error.Code)
}

func TestBearerAuth(t *testing.T) {
	r := newRouter("secret")

	w := do(r, "/ok", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errors.ErrCodeUnauthorized, decode(t, w).Error.Code)

	w = do(r, "/ok", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/ok", map[string]string{"Authorization": "Bearer secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code errors.ErrorCode
		want int
	}{
		{errors.ErrCodeInvalidDuration, http.StatusBadRequest},
		{errors.ErrCodeNoSuchVouch, http.StatusNotFound},
		{errors.ErrCodeForbidden, http.StatusForbidden},
		{errors.ErrCodeAlreadyClosed, http.StatusConflict},
		{errors.ErrCodeLockTimeout, http.StatusServiceUnavailable},
		{errors.ErrCodeDiscordAPI, http.StatusBadGateway},
		{errors.ErrCodeDatabaseError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(errors.New(tt.code, "x")))
		})
	}
}
