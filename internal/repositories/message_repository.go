package repositories

import "courier/internal/models"

// IDPolicy selects how Create treats the message id.
type IDPolicy int

const (
	// AutoAssign discards any id on the message and lets the store pick one.
	AutoAssign IDPolicy = iota
	// CallerSupplied upserts by the id on the message: an existing row is
	// replaced in place, otherwise a row with that id is inserted.
	CallerSupplied
)

func (p IDPolicy) String() string {
	switch p {
	case AutoAssign:
		return "auto-assign"
	case CallerSupplied:
		return "caller-supplied"
	default:
		return "unknown"
	}
}

// MessageRepository defines the interface for message data access.
type MessageRepository interface {
	Create(message *models.Message, policy IDPolicy) error
	GetByID(id int64) (*models.Message, error)
	DeleteByID(id int64) error
	SentBy(userID int64) ([]models.Message, error)
	ReceivedBy(userID int64) ([]models.Message, error)
	Count() (int64, error)
}
