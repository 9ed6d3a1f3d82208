package pubsub

import "fmt"

// Channel naming conventions for engagement events.
const (
	// Per-recipient live notification channel.
	ChannelUserNotifications = "notify:user:%s:events"
)

// Event types delivered on user notification channels.
const (
	EventNotificationCreated = "notification_created"
	EventNotificationRead    = "notification_read"
)

// UserNotificationChannel returns the live channel name for a recipient.
func UserNotificationChannel(userID string) string {
	return fmt.Sprintf(ChannelUserNotifications, userID)
}

// NotificationPayload is the payload for notification_created events.
type NotificationPayload struct {
	NotificationID  string `json:"notification_id"`
	ActorID         string `json:"actor_id"`
	RecipientID     string `json:"recipient_id"`
	Kind            string `json:"kind"`
	TargetContentID string `json:"target_content_id,omitempty"`
	Message         string `json:"message,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// NotificationReadPayload is the payload for notification_read events.
type NotificationReadPayload struct {
	NotificationID string `json:"notification_id"`
	RecipientID    string `json:"recipient_id"`
}
