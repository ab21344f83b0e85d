package ports

import "hifi-remote/internal/domain/model"

// Notifier shows user-facing messages: alerts for failed user actions and
// notices such as "Not configured".
type Notifier interface {
	Alert(title, message string)
}

// EventPublisher mirrors store changes to an external sink.
type EventPublisher interface {
	PublishLayout(layout model.RemoteLayout)
	PublishTimers(timers []model.Timer)
	PublishAlert(title, message string)
}
