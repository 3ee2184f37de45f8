package models

// Notification actions
const (
	ActionOpen    = "Open"
	ActionDismiss = "Dismiss"
)

// Notification is what the engine hands to a notification surface.
type Notification struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
	URL     string   `json:"url"`
	Keyword string   `json:"keyword"`
	Actions []string `json:"actions"`
}

// NewMatchNotification builds the user-facing notification for a first-time match.
func NewMatchNotification(rec MatchRecord) Notification {
	message := "Found on " + rec.URL
	if rec.Context != "" {
		message = rec.Context
	}
	return Notification{
		Title:   rec.Title,
		Message: message,
		URL:     rec.URL,
		Keyword: rec.Keyword,
		Actions: []string{ActionOpen, ActionDismiss},
	}
}
