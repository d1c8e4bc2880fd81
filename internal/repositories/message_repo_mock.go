package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"courier/internal/models"
)

// MockMessageRepository is an in-memory implementation of MessageRepository.
// It resolves senders and receivers through users so the referential rules
// match the SQL store.
type MockMessageRepository struct {
	users    UserRepository
	messages map[int64]models.Message
	nextID   int64
	mu       sync.RWMutex
}

// NewMockMessageRepository creates a new instance of MockMessageRepository.
func NewMockMessageRepository(users UserRepository) *MockMessageRepository {
	return &MockMessageRepository{
		users:    users,
		messages: make(map[int64]models.Message),
	}
}

// Create stores the message according to policy.
func (r *MockMessageRepository) Create(message *models.Message, policy IDPolicy) error {
	if _, err := r.users.GetByID(message.SenderID); err != nil {
		return fmt.Errorf("failed to create message: sender: %w", err)
	}
	if _, err := r.users.GetByID(message.ReceiverID); err != nil {
		return fmt.Errorf("failed to create message: receiver: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	switch policy {
	case AutoAssign:
		r.nextID++
		message.ID = r.nextID
		message.CreatedAt = now
	case CallerSupplied:
		if message.ID <= 0 {
			return fmt.Errorf("caller-supplied id must be positive, got %d", message.ID)
		}
		if existing, ok := r.messages[message.ID]; ok {
			message.CreatedAt = existing.CreatedAt
		} else {
			message.CreatedAt = now
		}
		if message.ID > r.nextID {
			r.nextID = message.ID
		}
	default:
		return fmt.Errorf("unknown id policy %d", policy)
	}
	message.UpdatedAt = now

	stored := *message
	stored.Sender = models.User{}
	stored.Receiver = models.User{}
	r.messages[message.ID] = stored
	return nil
}

// GetByID returns a message with its sender and receiver.
func (r *MockMessageRepository) GetByID(id int64) (*models.Message, error) {
	r.mu.RLock()
	m, ok := r.messages[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("message with ID %d: %w", id, ErrNotFound)
	}
	if err := r.attachUsers(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteByID removes a message by its ID.
func (r *MockMessageRepository) DeleteByID(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.messages[id]; !ok {
		return fmt.Errorf("message with ID %d: %w", id, ErrNotFound)
	}
	delete(r.messages, id)
	return nil
}

// SentBy returns every message whose sender is userID.
func (r *MockMessageRepository) SentBy(userID int64) ([]models.Message, error) {
	return r.filter(func(m models.Message) bool { return m.SenderID == userID })
}

// ReceivedBy returns every message whose receiver is userID.
func (r *MockMessageRepository) ReceivedBy(userID int64) ([]models.Message, error) {
	return r.filter(func(m models.Message) bool { return m.ReceiverID == userID })
}

// Count returns the number of stored messages.
func (r *MockMessageRepository) Count() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.messages)), nil
}

func (r *MockMessageRepository) filter(keep func(models.Message) bool) ([]models.Message, error) {
	r.mu.RLock()
	matched := make([]models.Message, 0)
	for _, m := range r.messages {
		if keep(m) {
			matched = append(matched, m)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	for i := range matched {
		if err := r.attachUsers(&matched[i]); err != nil {
			return nil, err
		}
	}
	return matched, nil
}

func (r *MockMessageRepository) attachUsers(m *models.Message) error {
	sender, err := r.users.GetByID(m.SenderID)
	if err != nil {
		return fmt.Errorf("message %d sender: %w", m.ID, err)
	}
	receiver, err := r.users.GetByID(m.ReceiverID)
	if err != nil {
		return fmt.Errorf("message %d receiver: %w", m.ID, err)
	}
	m.Sender = *sender
	m.Receiver = *receiver
	return nil
}
