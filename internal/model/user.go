package model

import "time"

// Role as stored on the user record
type Role string

const (
	RoleAutistic             Role = "autista"
	RoleTherapeuticAssistant Role = "at"
	RoleUnknown              Role = "unknown"
)

// NormalizeRole maps stored values onto the known roles
func NormalizeRole(raw string) Role {
	switch Role(raw) {
	case RoleAutistic, RoleTherapeuticAssistant:
		return Role(raw)
	}
	return RoleUnknown
}

type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Role         string    `json:"role" bson:"role"`
	Interests    []string  `json:"interests" bson:"interests"`
	Groups       []string  `json:"groups" bson:"groups"`
	LastActiveAt time.Time `json:"lastActiveAt,omitempty" bson:"lastActiveAt,omitempty"`
}
