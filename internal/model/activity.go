package model

// Activity is a structured group activity guided by the mediator
type Activity struct {
	ID          string   `json:"id" bson:"_id"`
	GroupID     string   `json:"groupId" bson:"groupId"`
	Title       string   `json:"title" bson:"title"`
	Type        string   `json:"type" bson:"type"`
	Description string   `json:"description" bson:"description"`
	DurationMin int      `json:"durationMin" bson:"durationMin"`
	Stages      []string `json:"stages" bson:"stages"`
}

// DefaultActivityStages is used when an activity defines none
var DefaultActivityStages = []string{"introdução", "discussão", "conclusão"}

// PlaceholderActivity stands in for an activity that is not in the store
func PlaceholderActivity(id string) *Activity {
	return &Activity{
		ID:          id,
		Title:       "Atividade Estruturada",
		Type:        "discussão",
		Description: "Uma discussão temática sobre interesses comuns",
		DurationMin: 30,
		Stages:      append([]string(nil), DefaultActivityStages...),
	}
}
