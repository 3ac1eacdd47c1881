package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomdash/backend/internal/interfaces/http/dto"
)

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("E-commerce Dashboard API", "1.0.0")
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("E-commerce Dashboard API", "1.2.3")
	c, w := newTestContext("")

	h.GetSystemInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "E-commerce Dashboard API", data["name"])
	assert.Equal(t, "1.2.3", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_Ping(t *testing.T) {
	h := NewSystemHandler("api", "dev")
	c, w := newTestContext("")

	h.Ping(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "pong", data["message"])

	_, err := time.Parse(time.RFC3339, data["timestamp"].(string))
	assert.NoError(t, err)
}

func TestSystemHandler_Probes(t *testing.T) {
	t.Run("health is always ok", func(t *testing.T) {
		c, w := newTestContext("")
		NewSystemHandler("api", "dev").Health(c)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	})

	t.Run("ready without probe", func(t *testing.T) {
		c, w := newTestContext("")
		NewSystemHandler("api", "dev").Ready(c)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not ready until loaded", func(t *testing.T) {
		loaded := false
		h := NewSystemHandler("api", "dev")
		h.SetReadiness(func() bool { return loaded })

		c, w := newTestContext("")
		h.Ready(c)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeDataUnavailable, resp.Error.Code)

		loaded = true
		c, w = newTestContext("")
		h.Ready(c)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())
	})
}
