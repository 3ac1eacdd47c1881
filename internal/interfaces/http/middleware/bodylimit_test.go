package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomdash/backend/internal/interfaces/http/dto"
)

func newRefreshRouter(limit int64) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), BodyLimit(limit))
	r.POST("/dataset/refresh", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusAccepted)
	})
	return r
}

func TestBodyLimit(t *testing.T) {
	post := func(r http.Handler, body string, contentLength int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/dataset/refresh", strings.NewReader(body))
		req.ContentLength = contentLength
		req.Header.Set(RequestIDHeader, "req-body")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("body within limit", func(t *testing.T) {
		w := post(newRefreshRouter(64), "{}", 2)
		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("declared length over limit answers the error envelope", func(t *testing.T) {
		w := post(newRefreshRouter(16), strings.Repeat("x", 32), 32)
		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
		assert.Equal(t, "req-body", resp.Error.RequestID)
	})

	t.Run("undeclared length is cut while reading", func(t *testing.T) {
		w := post(newRefreshRouter(16), strings.Repeat("x", 32), -1)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
