package models

// Severity ranks an alert for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Alert is one user-facing threshold breach.
type Alert struct {
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
}

// TopAlerts returns at most n alerts from the head of the list. The
// generator already orders alerts by priority.
func TopAlerts(alerts []Alert, n int) []Alert {
	if n <= 0 || len(alerts) <= n {
		return alerts
	}
	return alerts[:n]
}
