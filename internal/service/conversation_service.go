package service

import (
	"auticonnect/internal/cache"
	"auticonnect/internal/logger"
	"auticonnect/internal/model"
	"auticonnect/internal/repository"
	"context"
	"fmt"
	"time"
)

// ConversationService is the chat-platform side of the engine. It stores traffic, applies the facilitation
// cadence and keeps support sessions alive.
type ConversationService struct {
	mediation   *MediationService
	messages    repository.MessageRepo
	users       repository.UserRepo
	sessions    cache.SessionCache
	cadence     *Cadence
	groupWindow int
	now         func() time.Time
	userLocks   *keyedMutex
	log         *logger.Logger
}

// NewConversationService creates a new conversation service. A nil clock means time.Now.
func NewConversationService(
	mediation *MediationService,
	messages repository.MessageRepo,
	users repository.UserRepo,
	sessions cache.SessionCache,
	cadence *Cadence,
	groupWindow int,
	now func() time.Time,
	log *logger.Logger,
) *ConversationService {
	if now == nil {
		now = time.Now
	}
	return &ConversationService{
		mediation:   mediation,
		messages:    messages,
		users:       users,
		sessions:    sessions,
		cadence:     cadence,
		groupWindow: groupWindow,
		now:         now,
		userLocks:   newKeyedMutex(),
		log:         log,
	}
}

// HandleGroupMessage stores a group message and runs a facilitation cycle when the cadence allows it
func (s *ConversationService) HandleGroupMessage(ctx context.Context, groupID, senderID, text string) (model.MediationOutcome, error) {
	msg := &model.Message{
		Scope:     model.ScopeGroup,
		ScopeID:   groupID,
		SenderID:  senderID,
		Text:      text,
		Timestamp: s.now(),
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return model.MediationOutcome{}, fmt.Errorf("append group message: %w", err)
	}
	s.touch(ctx, senderID)

	var outcome model.MediationOutcome
	ran, err := s.cadence.Run(ctx, groupID, func(ctx context.Context) error {
		recent, err := s.groupHistory(ctx, groupID)
		if err != nil {
			return err
		}
		outcome, err = s.mediation.MediateGroup(ctx, groupID, recent)
		if err != nil {
			return err
		}
		if outcome.HasReply() {
			return s.appendReply(ctx, model.ScopeGroup, groupID, outcome.Reply)
		}
		return nil
	})
	if err != nil {
		return model.MediationOutcome{}, err
	}
	if ran {
		return outcome, nil
	}

	// Inside the cooldown the mediator stays quiet but the conversation is still scored.
	s.log.Info("facilitation suppressed by cadence, scoring only", "group_id", groupID)
	recent, err := s.groupHistory(ctx, groupID)
	if err != nil {
		return model.MediationOutcome{}, err
	}
	outcome, err = s.mediation.AssessGroup(ctx, groupID, recent)
	if err != nil {
		return model.MediationOutcome{}, err
	}
	outcome.Suppressed = true
	return outcome, nil
}

// groupHistory loads the group's recent messages, oldest first
func (s *ConversationService) groupHistory(ctx context.Context, groupID string) ([]model.Message, error) {
	recent, err := s.messages.Recent(ctx, model.ScopeGroup, groupID, s.groupWindow)
	if err != nil {
		return nil, fmt.Errorf("load group history: %w", err)
	}
	return chronological(recent), nil
}

// HandleDirectMessage answers a private message and refreshes the user's support session
func (s *ConversationService) HandleDirectMessage(ctx context.Context, userID, text string) (model.MediationOutcome, error) {
	unlock := s.userLocks.Lock(userID)
	defer unlock()

	now := s.now()
	if err := s.refreshSession(ctx, userID, now); err != nil {
		return model.MediationOutcome{}, err
	}
	s.touch(ctx, userID)

	outcome, err := s.mediation.SupportIndividual(ctx, userID, text)
	if err != nil {
		return model.MediationOutcome{}, err
	}

	msg := &model.Message{
		Scope:     model.ScopeUser,
		ScopeID:   userID,
		SenderID:  userID,
		Text:      text,
		Timestamp: now,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return model.MediationOutcome{}, fmt.Errorf("append direct message: %w", err)
	}
	if outcome.HasReply() {
		if err := s.appendReply(ctx, model.ScopeUser, userID, outcome.Reply); err != nil {
			return model.MediationOutcome{}, err
		}
	}
	return outcome, nil
}

// EndSupportSession closes the user's support session; history is kept
func (s *ConversationService) EndSupportSession(ctx context.Context, userID string) error {
	if err := s.sessions.Delete(ctx, userID); err != nil {
		return fmt.Errorf("end support session: %w", err)
	}
	s.log.Info("support session ended", "user_id", userID)
	return nil
}

// Session returns the user's active support session, nil if none
func (s *ConversationService) Session(ctx context.Context, userID string) (*model.SupportSession, error) {
	return s.sessions.Get(ctx, userID)
}

func (s *ConversationService) refreshSession(ctx context.Context, userID string, now time.Time) error {
	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("get support session: %w", err)
	}
	if session == nil {
		session = &model.SupportSession{UserID: userID, StartedAt: now}
		s.log.Info("support session started", "user_id", userID)
	}
	session.LastMessageAt = now
	session.Messages++
	if err := s.sessions.Set(ctx, session); err != nil {
		return fmt.Errorf("save support session: %w", err)
	}
	return nil
}

func (s *ConversationService) appendReply(ctx context.Context, scope model.Scope, scopeID, reply string) error {
	msg := &model.Message{
		Scope:     scope,
		ScopeID:   scopeID,
		SenderID:  model.MediatorSenderID,
		Text:      reply,
		Timestamp: s.now(),
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return fmt.Errorf("append mediator reply: %w", err)
	}
	return nil
}

// touch records activity. Errors are logged and dropped.
func (s *ConversationService) touch(ctx context.Context, userID string) {
	if err := s.users.TouchLastActive(ctx, userID, s.now()); err != nil {
		s.log.Warn("failed to update last activity", "user_id", userID, "error", err)
	}
}
