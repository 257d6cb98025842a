package gateway

import "github.com/Meizuno/Chat/logger"

// Severity of a user-facing notification.
type Severity string

const (
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
)

// Notification is the event handed to the presenter; the gateway only
// produces it, rendering is someone else's business.
type Notification struct {
	Severity    Severity
	Title       string
	Description string
}

// Notifier consumes notification events.
type Notifier interface {
	Notify(n Notification)
}

// Navigator is asked to move the user somewhere, e.g. back to the login page
// after a 401.
type Navigator interface {
	NavigateTo(path string)
}

// LogNotifier writes notifications to the process log. The default presenter
// for headless use; a UI wires its own.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	switch n.Severity {
	case SeverityError:
		logger.Errorf("[notify] %s: %s", n.Title, n.Description)
	default:
		logger.Infof("[notify] %s: %s", n.Title, n.Description)
	}
}

// LogNavigator logs navigation requests instead of performing them.
type LogNavigator struct{}

func (LogNavigator) NavigateTo(path string) {
	logger.Infof("[navigate] -> %s", path)
}
