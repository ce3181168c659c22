package model

import "context"

const (
	PlaceholderUserName  = "Usuário"
	PlaceholderGroupName = "Grupo"
	PlaceholderTheme     = "geral"
	UnknownSenderName    = "Desconhecido"
)

// History is a lazily loaded, bounded window of recent messages, most recent first.
type History struct {
	Limit int
	load  func(ctx context.Context, limit int) ([]Message, error)
}

// NewHistory binds a loader to a window size
func NewHistory(limit int, load func(ctx context.Context, limit int) ([]Message, error)) History {
	return History{Limit: limit, load: load}
}

// Recent fetches the window. A history without a loader is empty.
func (h History) Recent(ctx context.Context) ([]Message, error) {
	if h.load == nil || h.Limit <= 0 {
		return nil, nil
	}
	msgs, err := h.load(ctx, h.Limit)
	if err != nil {
		return nil, err
	}
	if len(msgs) > h.Limit {
		msgs = msgs[:h.Limit]
	}
	return msgs, nil
}

// UserContext is a read-only view of a user, rebuilt on every decision cycle
type UserContext struct {
	ID            string
	DisplayName   string
	Role          Role
	Interests     []string
	Groups        []string
	RecentHistory History
}

// Member is a resolved group participant
type Member struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// GroupContext is a read-only view of a group, rebuilt on every decision cycle
type GroupContext struct {
	ID            string
	Name          string
	Theme         string
	Description   string
	CreatedBy     string
	Members       []Member
	RecentHistory History
}

// MemberName resolves a sender id to a display name
func (g GroupContext) MemberName(id string) string {
	for _, m := range g.Members {
		if m.ID == id {
			return m.DisplayName
		}
	}
	return UnknownSenderName
}
