// internal/domain/notification/payload.go
package notification

// Payload is the rendered content of one reminder notification.
type Payload struct {
	Title string
	Body  string
	Tag   string // stable per notification key; channels may use it to replace an earlier notice
}

// Severity of an in-app toast.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)
