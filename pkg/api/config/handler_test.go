package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finreport_analyzer/pkg/api/respond"
	"finreport_analyzer/pkg/core/agent"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler() *Handler {
	return NewHandler(agent.NewManager(agent.Config{ActiveProvider: "deepseek"}, zerolog.Nop()), zerolog.Nop())
}

func TestHandleConfig(t *testing.T) {
	h := newHandler()
	rec := httptest.NewRecorder()
	h.HandleConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "deepseek", resp.ActiveProvider)
	assert.Contains(t, resp.Available, "kimi")
	assert.Contains(t, resp.Available, "claude")
}

func TestHandleSwitch(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"valid", `{"provider":"qwen"}`, http.StatusOK, ""},
		{"unknown provider", `{"provider":"nope"}`, http.StatusBadRequest, "UNKNOWN_PROVIDER"},
		{"missing provider", `{}`, http.StatusBadRequest, "INVALID_BODY"},
		{"malformed", `{"provider":`, http.StatusBadRequest, "INVALID_BODY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler()
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/config/switch", strings.NewReader(tt.body))
			h.HandleSwitch(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				var body respond.ErrorBody
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.code, body.Error)
				assert.Equal(t, "deepseek", h.AgentMgr.GetActiveProvider())
				return
			}
			assert.Equal(t, "qwen", h.AgentMgr.GetActiveProvider())
		})
	}
}
