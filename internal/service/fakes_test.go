package service

import (
	"auticonnect/internal/config"
	"auticonnect/internal/llm"
	"auticonnect/internal/logger"
	"auticonnect/internal/model"
	"auticonnect/internal/prompt"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// fakeGenerator answers mediation and scoring calls separately
type fakeGenerator struct {
	mu       sync.Mutex
	reply    string
	replyErr error
	score    string
	scoreErr error
	calls    []generatorCall
}

type generatorCall struct {
	messages []llms.MessageContent
	options  llms.CallOptions
	scoring  bool
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var o llms.CallOptions
	for _, opt := range options {
		opt(&o)
	}
	scoring := strings.Contains(messageText(messages[len(messages)-1]), scoringInstruction)

	f.mu.Lock()
	f.calls = append(f.calls, generatorCall{messages: messages, options: o, scoring: scoring})
	text, err := f.reply, f.replyErr
	if scoring {
		text, err = f.score, f.scoreErr
	}
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}, nil
}

func (f *fakeGenerator) replyCalls() []generatorCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []generatorCall
	for _, c := range f.calls {
		if !c.scoring {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeGenerator) scoringCalls() []generatorCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []generatorCall
	for _, c := range f.calls {
		if c.scoring {
			out = append(out, c)
		}
	}
	return out
}

func messageText(m llms.MessageContent) string {
	var b strings.Builder
	for _, p := range m.Parts {
		if tc, ok := p.(llms.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func newCompleter(gen llm.Generator) *llm.Client {
	cfg := config.LLMConfig{APIKey: "sk-test", Model: "gpt-4", TimeoutMS: 2000}
	return llm.NewWithGenerator(gen, cfg, logger.Nop())
}

type memUsers struct {
	mu      sync.Mutex
	users   map[string]*model.User
	err     error
	touched map[string]time.Time
}

func newMemUsers(users ...*model.User) *memUsers {
	m := &memUsers{users: map[string]*model.User{}, touched: map[string]time.Time{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) Get(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Upsert(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *memUsers) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[id] = at
	return nil
}

type memGroups struct {
	groups map[string]*model.Group
	err    error
}

func newMemGroups(groups ...*model.Group) *memGroups {
	m := &memGroups{groups: map[string]*model.Group{}}
	for _, g := range groups {
		m.groups[g.ID] = g
	}
	return m
}

func (m *memGroups) Get(ctx context.Context, id string) (*model.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	g, ok := m.groups[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (m *memGroups) Upsert(ctx context.Context, group *model.Group) error {
	m.groups[group.ID] = group
	return nil
}

type memActivities struct {
	activities map[string]*model.Activity
	err        error
}

func (m *memActivities) Get(ctx context.Context, id string) (*model.Activity, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.activities[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memActivities) Upsert(ctx context.Context, activity *model.Activity) error {
	if m.activities == nil {
		m.activities = map[string]*model.Activity{}
	}
	m.activities[activity.ID] = activity
	return nil
}

// memMessages keeps insertion order, which is chronological in these tests
type memMessages struct {
	mu   sync.Mutex
	msgs []model.Message
	err  error
}

func (m *memMessages) Append(ctx context.Context, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("m%d", len(m.msgs)+1)
	}
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memMessages) Recent(ctx context.Context, scope model.Scope, scopeID string, limit int) ([]model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Message
	for i := len(m.msgs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.msgs[i].Scope == scope && m.msgs[i].ScopeID == scopeID {
			out = append(out, m.msgs[i])
		}
	}
	return out, nil
}

func (m *memMessages) texts(scope model.Scope, scopeID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, msg := range m.msgs {
		if msg.Scope == scope && msg.ScopeID == scopeID {
			out = append(out, msg.SenderID+": "+msg.Text)
		}
	}
	return out
}

type memAlerts struct {
	mu      sync.Mutex
	created []*model.AlertEvent
	err     error
}

func (m *memAlerts) Create(ctx context.Context, alert *model.AlertEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, alert)
	return nil
}

func (m *memAlerts) ListRecent(ctx context.Context, limit int) ([]*model.AlertEvent, error) {
	return m.find(func(*model.AlertEvent) bool { return true }, limit), nil
}

func (m *memAlerts) ListBySubject(ctx context.Context, scope model.Scope, subjectID string, limit int) ([]*model.AlertEvent, error) {
	return m.find(func(a *model.AlertEvent) bool { return a.Scope == scope && a.SubjectID == subjectID }, limit), nil
}

func (m *memAlerts) find(match func(*model.AlertEvent) bool, limit int) []*model.AlertEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.AlertEvent{}
	for i := len(m.created) - 1; i >= 0 && len(out) < limit; i-- {
		if match(m.created[i]) {
			out = append(out, m.created[i])
		}
	}
	return out
}

type memCadence struct {
	mu   sync.Mutex
	last map[string]time.Time
	err  error
}

func newMemCadence() *memCadence {
	return &memCadence{last: map[string]time.Time{}}
}

func (m *memCadence) LastCycle(ctx context.Context, groupID string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return time.Time{}, false, m.err
	}
	t, ok := m.last[groupID]
	return t, ok, nil
}

func (m *memCadence) MarkCycle(ctx context.Context, groupID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[groupID] = at
	return nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*model.SupportSession
}

func (m *memSessions) Set(ctx context.Context, session *model.SupportSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *session
	m.sessions[session.UserID] = &cp
	return nil
}

func (m *memSessions) Get(ctx context.Context, userID string) (*model.SupportSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

type fakeBroadcaster struct {
	mu        sync.Mutex
	connected map[string]bool
	direct    []string
	all       int
}

func (b *fakeBroadcaster) NotifyProfessional(professionalID string, msgType string, payload interface{}) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected[professionalID] {
		return false
	}
	b.direct = append(b.direct, professionalID)
	return true
}

func (b *fakeBroadcaster) NotifyAllProfessionals(msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all++
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fixture wires every service over in-memory stores
type fixture struct {
	users       *memUsers
	groups      *memGroups
	activities  *memActivities
	messages    *memMessages
	alerts      *memAlerts
	cadence     *memCadence
	sessions    *memSessions
	gen         *fakeGenerator
	broadcaster *fakeBroadcaster
	clock       *fakeClock

	contexts      *ContextService
	alertSvc      *AlertService
	mediation     *MediationService
	conversations *ConversationService
}

const testCooldown = 5 * time.Minute

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users: newMemUsers(
			&model.User{ID: "u1", Name: "Ana", Role: "autista", Interests: []string{"trens", "mapas"}},
			&model.User{ID: "u2", Name: "Bruno", Role: "autista"},
			&model.User{ID: "p1", Name: "Carla", Role: "at"},
		),
		groups: newMemGroups(&model.Group{
			ID:          "g1",
			Name:        "Trens",
			Theme:       "ferrovias",
			Description: "Conversas sobre trens",
			Members:     []string{"u1", "u2", "p1"},
			CreatedBy:   "p1",
		}),
		activities:  &memActivities{activities: map[string]*model.Activity{}},
		messages:    &memMessages{},
		alerts:      &memAlerts{},
		cadence:     newMemCadence(),
		sessions:    &memSessions{sessions: map[string]*model.SupportSession{}},
		gen:         &fakeGenerator{score: `{"urgencia": 10}`},
		broadcaster: &fakeBroadcaster{connected: map[string]bool{}},
		clock:       &fakeClock{t: time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)},
	}
	f.rebuild(newCompleter(f.gen), 70)
	return f
}

// rebuild re-creates the services around a different completer or threshold
func (f *fixture) rebuild(completer llm.Completer, threshold int) {
	log := logger.Nop()
	composer := prompt.NewComposer(prompt.DefaultTemplates())
	f.contexts = NewContextService(f.users, f.groups, f.messages, 20, 10)
	f.alertSvc = NewAlertService(completer, composer, f.alerts, threshold, log)
	f.alertSvc.now = f.clock.Now
	f.alertSvc.SetBroadcaster(f.broadcaster)
	f.mediation = NewMediationService(f.contexts, f.activities, composer, completer, f.alertSvc, log)
	f.mediation.now = f.clock.Now
	cadence := NewCadence(f.cadence, testCooldown, f.clock.Now)
	f.conversations = NewConversationService(f.mediation, f.messages, f.users, f.sessions, cadence, 20, f.clock.Now, log)
}

func groupMsg(sender, text string) model.Message {
	return model.Message{Scope: model.ScopeGroup, ScopeID: "g1", SenderID: sender, Text: text}
}
