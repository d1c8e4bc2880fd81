package models

import "time"

// Message is a single point-to-point text message.
type Message struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Body       string    `json:"message" gorm:"type:text;not null"`
	SenderID   int64     `json:"sender_id" gorm:"not null;index"`
	Sender     User      `json:"-" gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
	ReceiverID int64     `json:"receiver_id" gorm:"not null;index"`
	Receiver   User      `json:"-" gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Payload projects the message into its transport shape. Sender and
// Receiver must be loaded.
func (m *Message) Payload() MessagePayload {
	return MessagePayload{
		ID:       m.ID,
		Message:  m.Body,
		Sender:   m.Sender.Username,
		Receiver: m.Receiver.Username,
	}
}

// MessagePayload is the transport shape of a message. Users are referenced
// by username only. It is also the request body of an update.
type MessagePayload struct {
	ID       int64  `json:"id"`
	Message  string `json:"message" validate:"required"`
	Sender   string `json:"sender" validate:"required"`
	Receiver string `json:"receiver" validate:"required"`
}

// SendRequest is the request body for sending a message.
type SendRequest struct {
	Message  string `json:"message" validate:"required"`
	Receiver string `json:"receiver" validate:"required"`
}
