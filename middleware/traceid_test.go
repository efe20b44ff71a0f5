package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questd/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTraceRouter echoes the gin trace id and the one audit sees, separated by "|".
func newTraceRouter() *gin.Engine {
	r := gin.New()
	r.Use(TraceID())
	r.GET("/trace", func(c *gin.Context) {
		c.String(http.StatusOK, GetTraceID(c)+"|"+audit.TraceID(c.Request.Context()))
	})
	return r
}

func traceOf(r *gin.Engine, header string) (body, echoed string) {
	req := httptest.NewRequest(http.MethodGet, "/trace", nil)
	if header != "" {
		req.Header.Set(TraceIDHeader, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Body.String(), w.Header().Get(TraceIDHeader)
}

func TestTraceID(t *testing.T) {
	r := newTraceRouter()

	t.Run("client supplied", func(t *testing.T) {
		body, echoed := traceOf(r, "abc-123")
		assert.Equal(t, "abc-123|abc-123", body)
		assert.Equal(t, "abc-123", echoed)
	})

	t.Run("generated", func(t *testing.T) {
		body, echoed := traceOf(r, "")
		require.Len(t, echoed, 36)
		assert.Equal(t, echoed+"|"+echoed, body)
	})

	t.Run("unique per request", func(t *testing.T) {
		_, a := traceOf(r, "")
		_, b := traceOf(r, "")
		assert.NotEqual(t, a, b)
	})
}

func TestGetTraceID_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "", GetTraceID(c))
}
