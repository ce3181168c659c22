package service

import (
	"auticonnect/internal/model"
	"fmt"
)

// groupTranscript renders "<name>: <text>" lines in the order the messages were given.
func groupTranscript(group model.GroupContext, msgs []model.Message) []string {
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		name := model.MediatorName
		if msg.SenderID != model.MediatorSenderID {
			name = group.MemberName(msg.SenderID)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", name, msg.Text))
	}
	return lines
}

func userSenderName(user model.UserContext, senderID string) string {
	switch senderID {
	case user.ID:
		return user.DisplayName
	case model.MediatorSenderID:
		return model.MediatorName
	}
	return model.UnknownSenderName
}

func userTranscript(user model.UserContext, msgs []model.Message) []string {
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", userSenderName(user, msg.SenderID), msg.Text))
	}
	return lines
}

// chronological reverses a most-recent-first window into a new slice.
func chronological(msgs []model.Message) []model.Message {
	out := make([]model.Message, len(msgs))
	for i, msg := range msgs {
		out[len(msgs)-1-i] = msg
	}
	return out
}
