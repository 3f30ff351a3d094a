package events

import "antares-helpdesk/internal/entities"

const NotificationCreated = "notification.created"

// NotificationCreatedEvent публикуется диспетчером после вставки уведомления.
type NotificationCreatedEvent struct {
	Notification entities.Notification
}

func (e NotificationCreatedEvent) Name() string {
	return NotificationCreated
}
