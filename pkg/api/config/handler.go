package config

import (
	"net/http"

	"finreport_analyzer/pkg/api/respond"
	"finreport_analyzer/pkg/core/agent"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type Response struct {
	ActiveProvider string   `json:"active_provider"`
	Available      []string `json:"available"`
}

type SwitchRequest struct {
	Provider string `json:"provider" validate:"required"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	AgentMgr *agent.Manager
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new config handler
func NewHandler(agentMgr *agent.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		AgentMgr: agentMgr,
		validate: validator.New(),
		log:      log.With().Str("component", "config").Logger(),
	}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, Response{
		ActiveProvider: h.AgentMgr.GetActiveProvider(),
		Available:      h.AgentMgr.Providers(),
	})
}

func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	var req SwitchRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	if err := h.AgentMgr.SetGlobalProvider(req.Provider); err != nil {
		respond.Error(w, http.StatusBadRequest, "UNKNOWN_PROVIDER", err.Error())
		return
	}
	h.log.Info().Str("provider", req.Provider).Msg("active provider switched")

	respond.JSON(w, http.StatusOK, Response{
		ActiveProvider: req.Provider,
		Available:      h.AgentMgr.Providers(),
	})
}
