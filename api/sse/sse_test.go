package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questd/config"
	mw "github.com/kasuganosora/questd/middleware"
	"github.com/kasuganosora/questd/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	secret  = "sse-secret"
	channel = "mission:events"
)

func newServer(t *testing.T) (*httptest.Server, func(payload string)) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	_, ps := testutil.SetupTestCache(t)
	h := NewHandler(ps, channel, config.SecurityConfig{JWTSecret: secret}, zap.NewNop())
	h.SetKeepalive(time.Hour)

	r := gin.New()
	r.GET("/events", h.ServeSSE)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	publish := func(payload string) {
		require.NoError(t, ps.Publish(context.Background(), channel, payload))
	}
	return srv, publish
}

// readEvent returns the next "event:" name and its data line.
func readEvent(t *testing.T, sc *bufio.Scanner) (string, string) {
	t.Helper()
	var name, data string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
	t.Fatalf("stream ended: %v", sc.Err())
	return "", ""
}

func TestServeSSE_Unauthorized(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/events?token=garbage")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeSSE_StreamsOwnEventsOnly(t *testing.T) {
	srv, publish := newServer(t)
	tok, err := mw.GenerateToken(7, secret, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?token="+tok, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	name, data := readEvent(t, sc)
	require.Equal(t, "connected", name)
	assert.JSONEq(t, `{"player_id":7}`, data)

	// The subscription is live once "connected" has been written.
	publish(`{"action":"completed","mission":{"id":1,"player_id":8}}`)
	publish(`not json`)
	publish(`{"action":"completed","mission":{"id":2,"player_id":7}}`)

	name, data = readEvent(t, sc)
	assert.Equal(t, "mission_completed", name)
	assert.JSONEq(t, `{"action":"completed","mission":{"id":2,"player_id":7}}`, data)
}
