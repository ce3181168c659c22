package handler

import (
	"auticonnect/internal/logger"
	"auticonnect/internal/model"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

const maxBatchMessages = 100

// Mediator runs decision cycles over an explicit batch of messages
type Mediator interface {
	MediateGroup(ctx context.Context, groupID string, recent []model.Message) (model.MediationOutcome, error)
	MediateConflict(ctx context.Context, groupID string, recent []model.Message) (model.MediationOutcome, error)
	GuideActivity(ctx context.Context, groupID, activityID, stage string, recent []model.Message) (model.MediationOutcome, error)
}

// Conversations is the conversation host: stored traffic, cadence and support sessions
type Conversations interface {
	HandleGroupMessage(ctx context.Context, groupID, senderID, text string) (model.MediationOutcome, error)
	HandleDirectMessage(ctx context.Context, userID, text string) (model.MediationOutcome, error)
	EndSupportSession(ctx context.Context, userID string) error
}

// MediationHandler handles mediation endpoints
type MediationHandler struct {
	mediator      Mediator
	conversations Conversations
	log           *logger.Logger
}

// NewMediationHandler creates a new mediation handler
func NewMediationHandler(mediator Mediator, conversations Conversations, log *logger.Logger) *MediationHandler {
	return &MediationHandler{
		mediator:      mediator,
		conversations: conversations,
		log:           log,
	}
}

// GroupMessageRequest is the request body for posting a group message
type GroupMessageRequest struct {
	SenderID string `json:"senderId"`
	Text     string `json:"text"`
}

// BatchRequest carries an explicit, oldest-first message batch
type BatchRequest struct {
	Messages []model.Message `json:"messages"`
	Stage    string          `json:"stage,omitempty"`
}

// SupportRequest is the request body for a direct message
type SupportRequest struct {
	Text string `json:"text"`
}

// PostGroupMessage handles POST /v1/groups/{groupId}/messages
func (h *MediationHandler) PostGroupMessage(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]

	var req GroupMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SenderID == "" || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "senderId and text are required")
		return
	}

	outcome, err := h.conversations.HandleGroupMessage(r.Context(), groupID, req.SenderID, req.Text)
	h.respond(w, outcome, err, "group_id", groupID)
}

// MediateGroup handles POST /v1/groups/{groupId}/mediate
func (h *MediationHandler) MediateGroup(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]

	msgs, ok := h.decodeBatch(w, r, groupID)
	if !ok {
		return
	}

	outcome, err := h.mediator.MediateGroup(r.Context(), groupID, msgs.Messages)
	h.respond(w, outcome, err, "group_id", groupID)
}

// MediateConflict handles POST /v1/groups/{groupId}/conflicts
func (h *MediationHandler) MediateConflict(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]

	msgs, ok := h.decodeBatch(w, r, groupID)
	if !ok {
		return
	}

	outcome, err := h.mediator.MediateConflict(r.Context(), groupID, msgs.Messages)
	h.respond(w, outcome, err, "group_id", groupID)
}

// GuideActivity handles POST /v1/groups/{groupId}/activities/{activityId}/guide
func (h *MediationHandler) GuideActivity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	groupID, activityID := vars["groupId"], vars["activityId"]

	req, ok := h.decodeBatch(w, r, groupID)
	if !ok {
		return
	}

	outcome, err := h.mediator.GuideActivity(r.Context(), groupID, activityID, req.Stage, req.Messages)
	h.respond(w, outcome, err, "group_id", groupID, "activity_id", activityID)
}

// Support handles POST /v1/users/{userId}/support
func (h *MediationHandler) Support(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	var req SupportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	outcome, err := h.conversations.HandleDirectMessage(r.Context(), userID, req.Text)
	h.respond(w, outcome, err, "user_id", userID)
}

// EndSession handles DELETE /v1/users/{userId}/session
func (h *MediationHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	if err := h.conversations.EndSupportSession(r.Context(), userID); err != nil {
		h.log.Error("failed to end support session", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to end session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MediationHandler) decodeBatch(w http.ResponseWriter, r *http.Request, groupID string) (BatchRequest, bool) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if len(req.Messages) > maxBatchMessages {
		writeError(w, http.StatusBadRequest, "too many messages in batch")
		return req, false
	}

	now := time.Now()
	for i := range req.Messages {
		req.Messages[i].Scope = model.ScopeGroup
		req.Messages[i].ScopeID = groupID
		if req.Messages[i].Timestamp.IsZero() {
			req.Messages[i].Timestamp = now
		}
	}
	return req, true
}

func (h *MediationHandler) respond(w http.ResponseWriter, outcome model.MediationOutcome, err error, kv ...interface{}) {
	if err != nil {
		h.log.Error("mediation cycle failed", append(kv, "error", err)...)
		writeError(w, http.StatusInternalServerError, "mediation failed")
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
