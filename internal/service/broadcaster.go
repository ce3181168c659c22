package service

// Alert message types pushed to professionals
const (
	MsgAlertTriggered = "alert_triggered"
)

// Broadcaster pushes messages to connected professionals (avoids import cycle with transport/ws)
type Broadcaster interface {
	// NotifyProfessional reports false when the professional has no open connection.
	NotifyProfessional(professionalID string, msgType string, payload interface{}) bool
	NotifyAllProfessionals(msgType string, payload interface{})
}
