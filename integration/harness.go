// Package integration provides an end-to-end test harness that wires the
// full questd stack (in-memory SQLite, local cache/pubsub, mission service,
// REST and SSE handlers) behind an httptest.Server.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/questd/api/rest"
	"github.com/kasuganosora/questd/api/sse"
	"github.com/kasuganosora/questd/audit"
	"github.com/kasuganosora/questd/cache"
	"github.com/kasuganosora/questd/config"
	"github.com/kasuganosora/questd/game/catalog"
	"github.com/kasuganosora/questd/game/item"
	"github.com/kasuganosora/questd/game/mission"
	"github.com/kasuganosora/questd/game/player"
	"github.com/kasuganosora/questd/game/species"
	mw "github.com/kasuganosora/questd/middleware"
	"github.com/kasuganosora/questd/model"
	"github.com/kasuganosora/questd/plugin/hook"
	"github.com/kasuganosora/questd/resource"
	"github.com/kasuganosora/questd/scheduler"
	"github.com/kasuganosora/questd/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	eventChannel = "mission:events"
	testAdminKey = "integration-admin-key"
)

// TestServer holds all components of a running test server.
type TestServer struct {
	DB       *gorm.DB
	Cache    cache.Cache
	PubSub   cache.PubSub
	Audit    *audit.Service
	Hooks    *hook.HookCenter
	Missions *mission.Service
	Sched    *scheduler.Scheduler
	Server   *httptest.Server
	URL      string
	Sec      config.SecurityConfig
	AdminKey string

	reloads atomic.Int32
}

// NewTestServer creates a fully wired test server loaded with the shipped
// catalog under ../data. Everything is torn down via t.Cleanup.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
	cfg := &config.Config{
		Server:   config.ServerConfig{AdminKey: testAdminKey},
		Security: sec,
	}

	ts := &TestServer{
		DB:       db,
		Cache:    c,
		PubSub:   ps,
		Sec:      sec,
		AdminKey: testAdminKey,
	}

	templates := catalog.New(db, c, time.Minute, logger)
	res := resource.NewLoader("../data", logger)
	reload := func(ctx context.Context) error {
		ts.reloads.Add(1)
		if err := res.Load(); err != nil {
			return err
		}
		if err := res.Import(ctx, db); err != nil {
			return err
		}
		return templates.Invalidate(ctx, res.TemplateIDs()...)
	}
	require.NoError(t, reload(context.Background()), "NewTestServer: catalog")

	ts.Audit = audit.New(db, 50*time.Millisecond, logger)
	ts.Sched = scheduler.New(logger)
	ts.Hooks = hook.NewHookCenter(logger)
	inventory := item.NewInventoryService(db, logger)
	ts.Missions = mission.NewService(db,
		templates,
		player.NewStore(),
		inventory,
		species.NewDefaultProvider(db, c, time.Minute, logger),
		logger,
		mission.WithRand(mission.NewRand(7)),
		mission.WithEvents(ps, eventChannel),
		mission.WithAudit(ts.Audit),
		mission.WithHooks(ts.Hooks),
	)

	ctx, cancel := context.WithCancel(context.Background())
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(ctx, sec.RateLimitRPS, sec.RateLimitBurst))

	api := r.Group("/api")
	events := sse.NewHandler(ps, eventChannel, sec, logger)
	events.SetKeepalive(time.Second)
	api.GET("/missions/events", events.ServeSSE)
	apirest.Mount(api, cfg,
		apirest.NewMissionHandler(ts.Missions, logger),
		apirest.NewInventoryHandler(inventory, logger),
		apirest.NewAdminHandler(ts.Missions, ts.Sched, reload, logger),
	)

	ts.Server = httptest.NewServer(r)
	ts.URL = ts.Server.URL
	t.Cleanup(func() {
		ts.Server.CloseClientConnections()
		ts.Server.Close()
		cancel()
		ts.Sched.Stop()
		ts.Audit.Stop()
	})
	return ts
}

// Reloads reports how many times the catalog reload ran.
func (ts *TestServer) Reloads() int { return int(ts.reloads.Load()) }

// --- HTTP helpers ---

// PostJSON sends a POST request with JSON body and optional Bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest("POST", ts.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// PostAdmin sends a POST to an admin endpoint with the admin key header.
func (ts *TestServer) PostAdmin(t *testing.T, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest("POST", ts.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("X-Admin-Key", ts.AdminKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Get sends a GET request with optional Bearer token.
func (ts *TestServer) Get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest("GET", ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// ReadJSON reads and decodes a JSON response body into the given target.
func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// --- Player helpers ---

// Token issues a bearer token for playerID.
func (ts *TestServer) Token(t *testing.T, playerID int64) string {
	t.Helper()
	tok, err := mw.GenerateToken(playerID, ts.Sec.JWTSecret, ts.Sec.JWTTTLH)
	require.NoError(t, err)
	return tok
}

// NewPlayer seeds a player at level and returns it with a bearer token.
func (ts *TestServer) NewPlayer(t *testing.T, name string, level int) (*model.Player, string) {
	t.Helper()
	p := testutil.SeedPlayer(t, ts.DB, name, level)
	return p, ts.Token(t, p.ID)
}
