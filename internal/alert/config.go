package alert

// Event names a webhook can subscribe to.
const (
	EventBlocked          = "blocked"
	EventAuditUnavailable = "audit_unavailable"
)

// AlertConfig defines a webhook alert destination.
type AlertConfig struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack"
	Events  []string          `yaml:"events"  json:"events"` // ["blocked", "audit_unavailable"]
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// AlertEvent is the payload sent to webhook endpoints.
type AlertEvent struct {
	Timestamp   string `json:"timestamp"`
	Event       string `json:"event"`
	Operation   string `json:"operation,omitempty"`
	TaskID      string `json:"task_id"`
	Principle   string `json:"principle"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
	Detail      string `json:"detail,omitempty"`
}
