package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markestedt/snipai/config"
	"markestedt/snipai/inject"
	"markestedt/snipai/session"
)

type fakeControls struct{}

func (fakeControls) SubmitPrompt(string)  {}
func (fakeControls) RequestPaste()        {}
func (fakeControls) RequestUndo()         {}
func (fakeControls) Close()               {}
func (fakeControls) State() session.State { return session.StateIdle }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("APPDATA", t.TempDir())

	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	cfg.LLM.APIKey = "gsk_test"

	return NewServer(nil, cfg, fakeControls{}, inject.NewUndoStore(), 0)
}

func TestGetConfigHidesAPIKey(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "gsk_test")

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["hasApiKey"])
	assert.Equal(t, "groq", resp["provider"])
}

func TestPutConfigSwapsNotMutates(t *testing.T) {
	s := newTestServer(t)
	shared := s.GetConfig()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/config",
		strings.NewReader(`{"model": "llama-3.1-8b-instant"}`))
	s.handleConfig(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "llama-3.3-70b-versatile", shared.LLM.Model,
		"the config handed to earlier readers must never change under them")
	assert.Equal(t, "llama-3.1-8b-instant", s.GetConfig().LLM.Model)
}

func TestPutConfigRejectsInvalid(t *testing.T) {
	s := newTestServer(t)
	shared := s.GetConfig()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/config",
		strings.NewReader(`{"hotkey": "alt+shift"}`))
	s.handleConfig(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Same(t, shared, s.GetConfig(), "a rejected update must leave the config in place")
	assert.Equal(t, "alt+shift+s", shared.Hotkey.Combo)
}

func TestPutConfigIgnoresEmptyAPIKey(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/config",
		strings.NewReader(`{"apiKey": "", "temperature": 0.3}`))
	s.handleConfig(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gsk_test", s.GetConfig().LLM.APIKey,
		"an empty key field means keep the existing key")
	assert.Equal(t, 0.3, s.GetConfig().LLM.Temperature)
}
