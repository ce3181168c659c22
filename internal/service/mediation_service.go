package service

import (
	"auticonnect/internal/llm"
	"auticonnect/internal/logger"
	"auticonnect/internal/model"
	"auticonnect/internal/prompt"
	"auticonnect/internal/repository"
	"context"
	"fmt"
	"strings"
	"time"
)

// ObservingSentinel is the exact reply meaning "stay silent"
const ObservingSentinel = "[OBSERVANDO]"

const supportTemperature = 0.6

const (
	groupInstruction = "Com base na conversa acima, decida se é necessário intervir. " +
		"Se não for necessário, responda apenas com '" + ObservingSentinel + "'."
	activityInstruction = "Com base na conversa acima e na etapa atual da atividade (%s), " +
		"forneça a próxima orientação para o grupo. Se ainda não for o momento de intervir, " +
		"responda apenas com '" + ObservingSentinel + "'."
	conflictInstruction = "Com base na conversa acima, ajude a esclarecer o possível mal-entendido de forma neutra. " +
		"Se não houver conflito que exija intervenção, responda apenas com '" + ObservingSentinel + "'."
)

// MediationService decides, for each conversation cycle, whether and what the mediator says and whether a
// professional should be alerted.
type MediationService struct {
	contexts   *ContextService
	activities repository.ActivityRepo
	composer   *prompt.Composer
	llm        llm.Completer
	alerts     *AlertService
	now        func() time.Time
	log        *logger.Logger
}

// NewMediationService creates a new mediation service
func NewMediationService(contexts *ContextService, activities repository.ActivityRepo, composer *prompt.Composer, completer llm.Completer, alerts *AlertService, log *logger.Logger) *MediationService {
	return &MediationService{
		contexts:   contexts,
		activities: activities,
		composer:   composer,
		llm:        completer,
		alerts:     alerts,
		now:        time.Now,
		log:        log,
	}
}

// cycle is one generation call plus the alert pass that always follows it
type cycle struct {
	system      string
	turns       []llm.Message
	instruction string
	temperature float64
	transcript  []string
	subject     AlertSubject
}

// MediateGroup runs a group-facilitation cycle over the given messages, oldest first.
func (s *MediationService) MediateGroup(ctx context.Context, groupID string, recent []model.Message) (model.MediationOutcome, error) {
	group, err := s.contexts.GroupContext(ctx, groupID)
	if err != nil {
		return model.MediationOutcome{}, err
	}

	transcript := groupTranscript(group, recent)
	return s.run(ctx, cycle{
		system:      s.composer.Render(prompt.GroupFacilitation{Group: group}),
		turns:       transcriptTurns(transcript),
		instruction: groupInstruction,
		temperature: llm.DefaultTemperature,
		transcript:  transcript,
		subject:     groupSubject(group),
	})
}

// AssessGroup runs only the alert pass over a group conversation, without asking the mediator to speak.
func (s *MediationService) AssessGroup(ctx context.Context, groupID string, recent []model.Message) (model.MediationOutcome, error) {
	group, err := s.contexts.GroupContext(ctx, groupID)
	if err != nil {
		return model.MediationOutcome{}, err
	}

	urgency, triggered, err := s.alerts.Evaluate(ctx, groupSubject(group), groupTranscript(group, recent), "")
	if err != nil {
		return model.MediationOutcome{}, err
	}
	return model.MediationOutcome{AlertTriggered: triggered, Urgency: urgency}, nil
}

// SupportIndividual answers a direct message. The user's stored history precedes the new message.
func (s *MediationService) SupportIndividual(ctx context.Context, userID, text string) (model.MediationOutcome, error) {
	user, err := s.contexts.UserContext(ctx, userID)
	if err != nil {
		return model.MediationOutcome{}, err
	}

	history, err := user.RecentHistory.Recent(ctx)
	if err != nil {
		return model.MediationOutcome{}, fmt.Errorf("load history for user %s: %w", userID, err)
	}

	msgs := append(chronological(history), s.directMessage(userID, text))

	turns := make([]llm.Message, 0, len(msgs))
	for _, msg := range msgs {
		role := llm.RoleUser
		if msg.SenderID == model.MediatorSenderID {
			role = llm.RoleAssistant
		}
		turns = append(turns, llm.Message{Role: role, Content: msg.Text})
	}

	return s.run(ctx, cycle{
		system:      s.composer.Render(prompt.IndividualSupport{User: user}),
		turns:       turns,
		temperature: supportTemperature,
		transcript:  userTranscript(user, msgs),
		subject: AlertSubject{
			Scope:     model.ScopeUser,
			SubjectID: userID,
			Summary:   fmt.Sprintf("Contexto: conversa individual com %s (papel: %s).", user.DisplayName, user.Role),
		},
	})
}

func (s *MediationService) directMessage(userID, text string) model.Message {
	return model.Message{
		Scope:     model.ScopeUser,
		ScopeID:   userID,
		SenderID:  userID,
		Text:      text,
		Timestamp: s.now(),
	}
}

// GuideActivity runs an activity-guidance cycle. Unknown activities are replaced by a placeholder and an
// empty stage means the first one.
func (s *MediationService) GuideActivity(ctx context.Context, groupID, activityID, stage string, recent []model.Message) (model.MediationOutcome, error) {
	group, err := s.contexts.GroupContext(ctx, groupID)
	if err != nil {
		return model.MediationOutcome{}, err
	}

	activity, err := s.activities.Get(ctx, activityID)
	if err != nil {
		return model.MediationOutcome{}, fmt.Errorf("get activity %s: %w", activityID, err)
	}
	if activity == nil {
		activity = model.PlaceholderActivity(activityID)
	}
	if len(activity.Stages) == 0 {
		activity.Stages = append([]string(nil), model.DefaultActivityStages...)
	}
	if stage == "" {
		stage = activity.Stages[0]
	}

	transcript := groupTranscript(group, recent)
	return s.run(ctx, cycle{
		system:      s.composer.Render(prompt.ActivityGuidance{Group: group, Activity: *activity, Stage: stage}),
		turns:       transcriptTurns(transcript),
		instruction: fmt.Sprintf(activityInstruction, stage),
		temperature: llm.DefaultTemperature,
		transcript:  transcript,
		subject:     groupSubject(group),
	})
}

// MediateConflict runs a conflict-mediation cycle over the given messages, oldest first.
func (s *MediationService) MediateConflict(ctx context.Context, groupID string, recent []model.Message) (model.MediationOutcome, error) {
	group, err := s.contexts.GroupContext(ctx, groupID)
	if err != nil {
		return model.MediationOutcome{}, err
	}

	transcript := groupTranscript(group, recent)
	return s.run(ctx, cycle{
		system:      s.composer.Render(prompt.ConflictMediation{Group: group}),
		turns:       transcriptTurns(transcript),
		instruction: conflictInstruction,
		temperature: llm.DefaultTemperature,
		transcript:  transcript,
		subject:     groupSubject(group),
	})
}

func (s *MediationService) run(ctx context.Context, c cycle) (model.MediationOutcome, error) {
	messages := make([]llm.Message, 0, len(c.turns)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: c.system})
	messages = append(messages, c.turns...)
	if c.instruction != "" {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: c.instruction})
	}

	res := s.llm.Complete(ctx, messages, llm.WithTemperature(c.temperature))
	reply := interpretReply(res.Text)
	if reply == "" {
		s.log.Debug("mediator observing", "scope", c.subject.Scope, "subject_id", c.subject.SubjectID)
	}

	// The alert pass runs whether or not the mediator speaks.
	urgency, triggered, err := s.alerts.Evaluate(ctx, c.subject, c.transcript, reply)
	if err != nil {
		return model.MediationOutcome{}, err
	}

	return model.MediationOutcome{
		Reply:          reply,
		AlertTriggered: triggered,
		Urgency:        urgency,
	}, nil
}

// interpretReply maps the sentinel and blank text to silence
func interpretReply(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == ObservingSentinel {
		return ""
	}
	return trimmed
}

func transcriptTurns(transcript []string) []llm.Message {
	turns := make([]llm.Message, 0, len(transcript))
	for _, line := range transcript {
		turns = append(turns, llm.Message{Role: llm.RoleUser, Content: line})
	}
	return turns
}

func groupSubject(group model.GroupContext) AlertSubject {
	return AlertSubject{
		Scope:        model.ScopeGroup,
		SubjectID:    group.ID,
		Summary:      fmt.Sprintf("Contexto: grupo '%s' (tema '%s') com %d participantes.", group.Name, group.Theme, len(group.Members)),
		NotifyUserID: group.CreatedBy,
	}
}
