package notifications

import "time"

// Type is the visual tone of a notification.
type Type string

const (
	TypeSuccess Type = "success"
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Notification is one message shown to a user.
type Notification struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	Type             Type      `json:"type"`
	IsRead           bool      `json:"isRead"`
	CreatedAt        time.Time `json:"createdAt"`
	RelatedInquiryID string    `json:"relatedInquiryId,omitempty"`
}
