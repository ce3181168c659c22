package service

import (
	"auticonnect/internal/config"
	"auticonnect/internal/llm"
	"auticonnect/internal/logger"
	"auticonnect/internal/model"
	"auticonnect/internal/prompt"
	"auticonnect/internal/repository"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	scoringTemperature = 0.2
	scoringMaxTokens   = 100
)

const scoringInstruction = "Responda apenas com um objeto JSON no formato {\"urgencia\": N}, " +
	"onde N é um número inteiro de 0 a 100 indicando a urgência de intervenção de um profissional."

// AlertSubject identifies who an alert is about and who should hear of it first
type AlertSubject struct {
	Scope     model.Scope
	SubjectID string
	Summary   string
	// NotifyUserID is tried before falling back to every connected professional.
	NotifyUserID string
}

// AlertService scores conversations for escalation and records alerts
type AlertService struct {
	llm         llm.Completer
	composer    *prompt.Composer
	alerts      repository.AlertRepo
	broadcaster Broadcaster
	threshold   int
	now         func() time.Time
	log         *logger.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(completer llm.Completer, composer *prompt.Composer, alerts repository.AlertRepo, threshold int, log *logger.Logger) *AlertService {
	return &AlertService{
		llm:       completer,
		composer:  composer,
		alerts:    alerts,
		threshold: config.ClampUrgency(threshold),
		now:       time.Now,
		log:       log,
	}
}

// SetBroadcaster sets the broadcaster for live alert delivery
func (s *AlertService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Threshold returns the configured alert threshold
func (s *AlertService) Threshold() int {
	return s.threshold
}

// Triggered is the alert decision: urgency at or above the threshold
func Triggered(urgency, threshold int) bool {
	return urgency >= threshold
}

// Assess asks the generation service how urgently a professional is needed. Any failure scores 0.
func (s *AlertService) Assess(ctx context.Context, subject AlertSubject, transcript []string, mediatorText string) int {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: s.composer.Render(prompt.ProfessionalAlert{Summary: subject.Summary})},
		{Role: llm.RoleUser, Content: scoringRequest(transcript, mediatorText)},
	}

	res := s.llm.Complete(ctx, messages, llm.WithTemperature(scoringTemperature), llm.WithMaxTokens(scoringMaxTokens))
	if res.Degraded {
		s.log.Warn("urgency scoring unavailable, assuming no urgency", "scope", subject.Scope, "subject_id", subject.SubjectID)
		return 0
	}

	urgency, ok := ParseUrgency(res.Text)
	if !ok {
		s.log.Warn("unparseable urgency score, assuming no urgency", "scope", subject.Scope, "subject_id", subject.SubjectID, "text", res.Text)
		return 0
	}
	return urgency
}

// Evaluate scores the conversation and, when the threshold is met, persists and delivers an alert
func (s *AlertService) Evaluate(ctx context.Context, subject AlertSubject, transcript []string, mediatorText string) (int, bool, error) {
	urgency := s.Assess(ctx, subject, transcript, mediatorText)
	if !Triggered(urgency, s.threshold) {
		return urgency, false, nil
	}

	event := &model.AlertEvent{
		ID:          uuid.New().String(),
		Scope:       subject.Scope,
		SubjectID:   subject.SubjectID,
		Urgency:     urgency,
		Threshold:   s.threshold,
		TriggeredAt: s.now(),
		ContextSnapshot: model.ContextSnapshot{
			Summary:      subject.Summary,
			Transcript:   append([]string{}, transcript...),
			MediatorText: mediatorText,
		},
	}
	s.log.Warn("professional alert triggered", "alert_id", event.ID, "scope", event.Scope, "subject_id", event.SubjectID, "urgency", urgency, "threshold", s.threshold)

	// Live delivery goes out even when the write fails.
	s.deliver(subject, event)
	if err := s.alerts.Create(ctx, event); err != nil {
		return urgency, true, fmt.Errorf("persist alert: %w", err)
	}
	return urgency, true, nil
}

func (s *AlertService) deliver(subject AlertSubject, event *model.AlertEvent) {
	if s.broadcaster == nil {
		return
	}
	if subject.NotifyUserID != "" && s.broadcaster.NotifyProfessional(subject.NotifyUserID, MsgAlertTriggered, event) {
		return
	}
	s.broadcaster.NotifyAllProfessionals(MsgAlertTriggered, event)
}

// Recent lists the most recent alerts, optionally for one subject
func (s *AlertService) Recent(ctx context.Context, scope model.Scope, subjectID string, limit int) ([]*model.AlertEvent, error) {
	if subjectID != "" {
		return s.alerts.ListBySubject(ctx, scope, subjectID, limit)
	}
	return s.alerts.ListRecent(ctx, limit)
}

func scoringRequest(transcript []string, mediatorText string) string {
	var b strings.Builder
	b.WriteString("Conversa recente:\n")
	if len(transcript) == 0 {
		b.WriteString("(sem mensagens)\n")
	}
	for _, line := range transcript {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if mediatorText != "" {
		b.WriteString("\nResposta do mediador: ")
		b.WriteString(mediatorText)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(scoringInstruction)
	return b.String()
}
