package domain

import (
	"fmt"
	"time"
)

const (
	NotificationUnread = "unread"
	NotificationRead   = "read"
)

// Notification is an in-app message addressed to a single user.
type Notification struct {
	ID          string     `json:"id" bson:"_id"`
	SenderID    string     `json:"sender_id" bson:"sender_id"`
	ReceiverID  string     `json:"receiver_id" bson:"receiver_id"`
	Message     string     `json:"message" bson:"message"`
	ReferenceID string     `json:"reference_id,omitempty" bson:"reference_id,omitempty"`
	Status      string     `json:"status" bson:"status"`
	ReadAt      *time.Time `json:"read_at" bson:"read_at"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
}

func (n *Notification) IsRead() bool { return n.Status == NotificationRead }

func ApplicationCreatedMessage(referenceID string) string {
	return "Your new loan application has been created! Reference ID: " + referenceID
}

func AgentAssignedMessage(referenceID string) string {
	return "You have been assigned as Agent for loan application #" + referenceID
}

func AdminAssignedMessage(referenceID string) string {
	return "You have been assigned as Admin for loan application #" + referenceID
}

func StatusChangedMessage(status ApplicationStatus) string {
	return fmt.Sprintf("Your loan application status has been updated to %s", status)
}

func DeleteRequestedMessage(username, referenceID string) string {
	return fmt.Sprintf("Delete request sent by %s using reference ID #%s", username, referenceID)
}
