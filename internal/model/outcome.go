package model

// MediationOutcome is what the engine hands back to the transport layer.
// An empty Reply means the mediator stays silent.
type MediationOutcome struct {
	Reply          string `json:"reply,omitempty"`
	AlertTriggered bool   `json:"alert"`
	Urgency        int    `json:"urgency"`
	Suppressed     bool   `json:"suppressed,omitempty"`
}

// HasReply reports whether something should be posted
func (o MediationOutcome) HasReply() bool {
	return o.Reply != ""
}
