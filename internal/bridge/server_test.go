package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/economy/internal/catalog"
	"github.com/kingrea/economy/internal/chat"
	"github.com/kingrea/economy/internal/config"
	"github.com/kingrea/economy/internal/economy"
	"github.com/kingrea/economy/internal/ledger"
	"github.com/kingrea/economy/internal/usehandler"
)

func TestSettingsFromConfigHonorsEnv(t *testing.T) {
	t.Setenv("ECONOMY_BRIDGE_PORT", "9001")
	t.Setenv("ECONOMY_BRIDGE_HOST", "0.0.0.0")
	t.Setenv("ECONOMY_BRIDGE_ENABLED", "false")
	settings := SettingsFromConfig(&config.Config{})
	assert.Equal(t, 9001, settings.Port)
	assert.Equal(t, "0.0.0.0", settings.Host)
	assert.False(t, settings.Enabled)
	assert.Equal(t, DefaultMaxBodyBytes, settings.MaxBodyBytes)
}

func TestSettingsFromConfigUsesProjectValues(t *testing.T) {
	enabled := false
	cfg := &config.Config{}
	cfg.Project.Bridge = config.BridgeConfig{Enabled: &enabled, Host: " 10.0.0.5 ", Port: 7000}
	settings := SettingsFromConfig(cfg)
	assert.False(t, settings.Enabled)
	assert.Equal(t, "10.0.0.5:7000", settings.Address())
	assert.Equal(t, "http://10.0.0.5:7000", settings.URL())
}

func TestSettingsFromConfigBodyCapAndDedupeWindow(t *testing.T) {
	cfg := &config.Config{}
	cfg.Project.Bridge = config.BridgeConfig{MaxBodyBytes: 2048, DedupeWindow: 16}
	settings := SettingsFromConfig(cfg)
	assert.Equal(t, int64(2048), settings.MaxBodyBytes)
	assert.Equal(t, 16, settings.DedupeWindow)

	t.Setenv("ECONOMY_BRIDGE_MAX_BODY_BYTES", "512")
	t.Setenv("ECONOMY_BRIDGE_DEDUPE_WINDOW", "nope")
	settings = SettingsFromConfig(cfg)
	assert.Equal(t, int64(512), settings.MaxBodyBytes)
	assert.Equal(t, 16, settings.DedupeWindow)

	defaults := SettingsFromConfig(nil)
	assert.Equal(t, DefaultDedupeWindow, defaults.DedupeWindow)
	assert.Equal(t, DefaultWriteTimeout, defaults.WriteTimeout)
}

func TestMessageValidate(t *testing.T) {
	msg := Message{AuthorID: " u1 ", Content: "e balance"}
	msg.Normalize()
	require.NoError(t, msg.Validate())
	assert.Equal(t, "u1", msg.AuthorID)
	assert.NotEmpty(t, msg.MessageID, "missing ids are generated")

	assert.Error(t, Message{Content: "x"}.Validate())
	assert.Error(t, Message{AuthorID: "u1", Content: "   "}.Validate())
}

func TestDedupeWindowForgetsOldest(t *testing.T) {
	d := newDedupe(2)
	assert.True(t, d.claim("a"))
	assert.False(t, d.claim("a"))
	assert.True(t, d.claim("b"))
	assert.True(t, d.claim("c"))
	assert.True(t, d.claim("a"), "a fell out of the window")
	d.release("a")
	assert.True(t, d.claim("a"))
}

func newEconomyServer(t *testing.T) (*Server, *ledger.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bank_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"accounts": {}}`), 0o644))
	store := ledger.NewStore(ledger.Options{Path: path})
	cat, err := catalog.New(map[string]catalog.Item{"stick": {Price: 10}})
	require.NoError(t, err)
	handlers := usehandler.NewRegistry()
	handlers.MustRegisterNamed("use_stick", usehandler.HandlerFunc(func(ctx chat.Context, _ string) error {
		return ctx.Send("You used a stick, lol")
	}))
	econ, err := economy.New(store, cat, handlers)
	require.NoError(t, err)
	require.NoError(t, econ.LoadOnStartup())
	srv := NewServer(Settings{Enabled: true},
		WithDispatcher(economy.NewDispatcher(econ, "e ")),
		WithReadiness(store.Ready))
	return srv, store
}

func postMessage(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestMessagesRunCommands(t *testing.T) {
	srv, store := newEconomyServer(t)
	h := srv.Handler()

	rec, resp := postMessage(t, h, `{"message_id": "m1", "author_id": "u1", "content": "e buy stick"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m1", resp["message_id"])
	assert.Equal(t, true, resp["handled"])
	replies, ok := resp["replies"].([]any)
	require.True(t, ok)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "You bought 1 stick")

	_, resp = postMessage(t, h, `{"message_id": "m2", "author_id": "u1", "content": "e use stick"}`)
	assert.Equal(t, []any{"You used a stick, lol"}, resp["replies"])

	acct, _ := store.Account("u1")
	assert.Equal(t, int64(490), acct.Wallet)
	assert.Empty(t, acct.Inventory)
}

func TestMessagesIgnoreChatter(t *testing.T) {
	srv, _ := newEconomyServer(t)
	rec, resp := postMessage(t, srv.Handler(), `{"author_id": "u1", "content": "hello everyone"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["handled"])
	assert.Equal(t, []any{}, resp["replies"])
	assert.NotEmpty(t, resp["message_id"])
}

func TestMessagesRejectDuplicates(t *testing.T) {
	srv, store := newEconomyServer(t)
	h := srv.Handler()
	body := `{"message_id": "dup", "author_id": "u1", "content": "e buy stick"}`

	rec, _ := postMessage(t, h, body)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, resp := postMessage(t, h, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate message_id", resp["error"])

	acct, _ := store.Account("u1")
	assert.Equal(t, int64(1), acct.Quantity("stick"))
}

func TestMessagesBadRequests(t *testing.T) {
	srv, _ := newEconomyServer(t)
	h := srv.Handler()
	cases := map[string]string{
		"not json":       `{"author_id":`,
		"missing author": `{"content": "e balance"}`,
		"empty content":  `{"author_id": "u1", "content": ""}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec, resp := postMessage(t, h, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestMessagesReportCommandFailure(t *testing.T) {
	var attempts int
	srv := NewServer(Settings{}, WithDispatcher(DispatcherFunc(func(chat.Context, string) (bool, error) {
		attempts++
		return true, errors.New("disk full")
	})))
	body := `{"message_id": "m1", "author_id": "admin", "content": "e savedata"}`

	rec, resp := postMessage(t, srv.Handler(), body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "command failed", resp["error"])

	rec, _ = postMessage(t, srv.Handler(), body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code, "failed ids may be retried")
	assert.Equal(t, 2, attempts)
}

func TestHealthReportsReadiness(t *testing.T) {
	srv, store := newEconomyServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.True(t, health.LedgerReady)
	assert.Equal(t, ProtocolVersion, health.Version)

	store.MarkUnready()
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.False(t, health.LedgerReady)
}

func TestServerStartAndShutdown(t *testing.T) {
	srv, _ := newEconomyServer(t)
	srv.settings.Port = 0
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	assert.Equal(t, StatusReady, srv.Status())
	assert.Error(t, srv.Start(context.Background()), "second start must fail")

	resp, err := http.Post(srv.BaseURL()+"/messages", "application/json",
		bytes.NewReader([]byte(`{"author_id": "u1", "content": "e bal"}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.BaseURL() + "/messages")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.Equal(t, StatusDraining, srv.Status())
	assert.Empty(t, srv.Addr())
}

func TestServerEnforcesPayloadLimit(t *testing.T) {
	srv := NewServer(Settings{Enabled: true, MaxBodyBytes: 64})
	payload, err := json.Marshal(map[string]string{
		"author_id": "u1",
		"content":   strings.Repeat("a", 512),
	})
	require.NoError(t, err)
	rec, _ := postMessage(t, srv.Handler(), string(payload))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestDisabledServerDoesNotStart(t *testing.T) {
	srv := NewServer(Settings{Enabled: false, ReadTimeout: time.Second})
	assert.ErrorIs(t, srv.Start(context.Background()), ErrDisabled)
}
