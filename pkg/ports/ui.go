package ports

import "fmt"

// ConfirmationRequest describes a yes/no gate presented to the user.
type ConfirmationRequest struct {
	Header string
	// Body is a printf template; Labels are substituted in order.
	Body         string
	Labels       []string
	ConfirmLabel string
	Variant      string

	OnConfirm func()
	OnDecline func()
}

// Message renders the body template with its labels.
func (r ConfirmationRequest) Message() string {
	args := make([]any, len(r.Labels))
	for i, l := range r.Labels {
		args[i] = l
	}
	return fmt.Sprintf(r.Body, args...)
}

// Confirmer presents confirmation requests. Implementations call exactly one
// of OnConfirm or OnDecline, now or later.
type Confirmer interface {
	Request(req ConfirmationRequest)
}

// Severity of a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarn    Severity = "warn"
	SeverityError   Severity = "error"
)

// Notification is a user-visible, fire-and-forget message.
type Notification struct {
	Title    string
	Body     string
	Severity Severity
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(n Notification)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(req ConfirmationRequest)

func (f ConfirmFunc) Request(req ConfirmationRequest) { f(req) }

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(n Notification)

func (f NotifyFunc) Notify(n Notification) { f(n) }
