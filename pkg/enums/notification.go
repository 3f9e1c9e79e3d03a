package enums

// NotificationKind classifies user-facing notifications.
type NotificationKind string

const (
	NotificationOrderCreated  NotificationKind = "order_created"
	NotificationStatusChanged NotificationKind = "status_changed"
)
