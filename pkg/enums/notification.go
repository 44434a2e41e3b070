package enums

import "fmt"

// NotificationType categorizes realtime alerts raised for clients.
type NotificationType string

const (
	NotificationTypeOrderPlaced        NotificationType = "order_placed"
	NotificationTypeOrderStatusChanged NotificationType = "order_status_changed"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderPlaced,
	NotificationTypeOrderStatusChanged,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
