package model

import "time"

// AlertEvent records an escalation to a human professional. Append-only.
type AlertEvent struct {
	ID              string          `json:"id" bson:"_id"`
	Scope           Scope           `json:"scope" bson:"scope"`
	SubjectID       string          `json:"subjectId" bson:"subjectId"`
	Urgency         int             `json:"urgency" bson:"urgency"`
	Threshold       int             `json:"threshold" bson:"threshold"`
	TriggeredAt     time.Time       `json:"triggeredAt" bson:"triggeredAt"`
	ContextSnapshot ContextSnapshot `json:"contextSnapshot" bson:"contextSnapshot"`
}

// ContextSnapshot is what the evaluator saw when it scored the conversation
type ContextSnapshot struct {
	Summary      string   `json:"summary" bson:"summary"`
	Transcript   []string `json:"transcript" bson:"transcript"`
	MediatorText string   `json:"mediatorText,omitempty" bson:"mediatorText,omitempty"`
}
