package repositories

import (
	"errors"
	"fmt"

	"courier/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMMessageRepository is a GORM implementation of MessageRepository.
// Sender and receiver existence is enforced by foreign keys.
type GORMMessageRepository struct {
	db *gorm.DB
}

// NewGORMMessageRepository creates a new instance of GORMMessageRepository.
func NewGORMMessageRepository(db *gorm.DB) *GORMMessageRepository {
	return &GORMMessageRepository{db: db}
}

// Create stores the message according to policy. Associated users are never
// written through this path.
func (r *GORMMessageRepository) Create(message *models.Message, policy IDPolicy) error {
	if message.SenderID == 0 || message.ReceiverID == 0 {
		return fmt.Errorf("message requires both sender and receiver")
	}

	tx := r.db.Omit(clause.Associations)
	switch policy {
	case AutoAssign:
		message.ID = 0
	case CallerSupplied:
		if message.ID <= 0 {
			return fmt.Errorf("caller-supplied id must be positive, got %d", message.ID)
		}
		tx = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "sender_id", "receiver_id", "updated_at"}),
		})
	default:
		return fmt.Errorf("unknown id policy %d", policy)
	}

	if err := tx.Create(message).Error; err != nil {
		return fmt.Errorf("failed to create message (%s): %w", policy, err)
	}
	return nil
}

// GetByID retrieves a message with its sender and receiver.
func (r *GORMMessageRepository) GetByID(id int64) (*models.Message, error) {
	var message models.Message
	if err := r.withUsers().First(&message, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("message with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get message by ID %d: %w", id, err)
	}
	return &message, nil
}

// DeleteByID deletes a message by its ID.
func (r *GORMMessageRepository) DeleteByID(id int64) error {
	res := r.db.Delete(&models.Message{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete message: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("message with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

// SentBy returns every message whose sender is userID.
func (r *GORMMessageRepository) SentBy(userID int64) ([]models.Message, error) {
	var messages []models.Message
	if err := r.withUsers().Where("sender_id = ?", userID).Order("id").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to get messages sent by %d: %w", userID, err)
	}
	return messages, nil
}

// ReceivedBy returns every message whose receiver is userID.
func (r *GORMMessageRepository) ReceivedBy(userID int64) ([]models.Message, error) {
	var messages []models.Message
	if err := r.withUsers().Where("receiver_id = ?", userID).Order("id").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to get messages received by %d: %w", userID, err)
	}
	return messages, nil
}

// Count returns the number of stored messages.
func (r *GORMMessageRepository) Count() (int64, error) {
	var n int64
	if err := r.db.Model(&models.Message{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

func (r *GORMMessageRepository) withUsers() *gorm.DB {
	return r.db.Preload("Sender").Preload("Receiver")
}
