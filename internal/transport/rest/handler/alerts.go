package handler

import (
	"auticonnect/internal/logger"
	"auticonnect/internal/model"
	"context"
	"net/http"
	"strconv"
)

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 200
)

// AlertLister reads persisted alerts
type AlertLister interface {
	Recent(ctx context.Context, scope model.Scope, subjectID string, limit int) ([]*model.AlertEvent, error)
}

// AlertHandler handles alert endpoints
type AlertHandler struct {
	alerts AlertLister
	log    *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alerts AlertLister, log *logger.Logger) *AlertHandler {
	return &AlertHandler{alerts: alerts, log: log}
}

// List handles GET /v1/alerts?limit=&scope=&subjectId=
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultAlertLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if limit > maxAlertLimit {
		limit = maxAlertLimit
	}

	scope := model.Scope(q.Get("scope"))
	subjectID := q.Get("subjectId")
	if subjectID != "" && scope != model.ScopeGroup && scope != model.ScopeUser {
		writeError(w, http.StatusBadRequest, "scope must be group or user when subjectId is set")
		return
	}

	alerts, err := h.alerts.Recent(r.Context(), scope, subjectID, limit)
	if err != nil {
		h.log.Error("failed to list alerts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": alerts})
}
