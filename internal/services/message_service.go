package services

import (
	"fmt"
	"sort"
	"strconv"

	"courier/internal/models"
	"courier/internal/repositories"

	"go.uber.org/zap"
)

// MessageService handles business logic related to messages. Every method
// authorizes the principal before touching a repository.
//
// Writes fail strictly when a referenced user is missing. Listings return an
// empty slice instead, since they have nothing to protect.
type MessageService struct {
	userRepo    repositories.UserRepository
	messageRepo repositories.MessageRepository
	audit       *Auditor
	log         *zap.Logger
}

// NewMessageService creates a new MessageService. audit may be nil.
func NewMessageService(userRepo repositories.UserRepository, messageRepo repositories.MessageRepository, audit *Auditor, log *zap.Logger) *MessageService {
	return &MessageService{
		userRepo:    userRepo,
		messageRepo: messageRepo,
		audit:       audit,
		log:         log,
	}
}

// Send stores a message from the principal to the user named by
// req.Receiver and returns it with its assigned id.
func (s *MessageService) Send(p *Principal, req models.SendRequest) (*models.MessagePayload, error) {
	if err := Authorize(p, RoleSetUser...); err != nil {
		return nil, err
	}

	sender, err := s.userRepo.GetByID(p.UserID)
	if err != nil {
		return nil, notFoundOr("sender", err)
	}
	receiver, err := s.userRepo.GetByUsername(req.Receiver)
	if err != nil {
		return nil, notFoundOr("recipient", err)
	}

	message := &models.Message{
		Body:       req.Message,
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
	}
	if err := s.messageRepo.Create(message, repositories.AutoAssign); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	message.Sender = *sender
	message.Receiver = *receiver

	out := message.Payload()
	return &out, nil
}

// ListOwnSent lists the messages the principal sent.
func (s *MessageService) ListOwnSent(p *Principal) ([]models.MessagePayload, error) {
	if err := Authorize(p, RoleSetUser...); err != nil {
		return nil, err
	}
	return s.sentByUsername(p.Username), nil
}

// ListSentByUsername lists the messages sent by any user.
func (s *MessageService) ListSentByUsername(p *Principal, username string) ([]models.MessagePayload, error) {
	if err := Authorize(p, RoleSetPrivileged...); err != nil {
		return nil, err
	}
	return s.sentByUsername(username), nil
}

// ListOwnReceived lists the messages the principal received.
func (s *MessageService) ListOwnReceived(p *Principal) ([]models.MessagePayload, error) {
	if err := Authorize(p, RoleSetUser...); err != nil {
		return nil, err
	}
	return s.receivedByUsername(p.Username), nil
}

// ListReceivedByUsername lists the messages received by any user.
func (s *MessageService) ListReceivedByUsername(p *Principal, username string) ([]models.MessagePayload, error) {
	if err := Authorize(p, RoleSetPrivileged...); err != nil {
		return nil, err
	}
	return s.receivedByUsername(username), nil
}

// ListCombined lists the union of the principal's sent and received
// messages. A self-addressed message appears once.
func (s *MessageService) ListCombined(p *Principal) ([]models.MessagePayload, error) {
	if err := Authorize(p, RoleSetUser...); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(p.UserID)
	if err != nil {
		s.log.Debug("combined listing for unknown user", zap.Int64("user_id", p.UserID), zap.Error(err))
		return []models.MessagePayload{}, nil
	}
	sent, err := s.messageRepo.SentBy(user.ID)
	if err != nil {
		s.log.Warn("failed to load sent messages", zap.Int64("user_id", user.ID), zap.Error(err))
		return []models.MessagePayload{}, nil
	}
	received, err := s.messageRepo.ReceivedBy(user.ID)
	if err != nil {
		s.log.Warn("failed to load received messages", zap.Int64("user_id", user.ID), zap.Error(err))
		return []models.MessagePayload{}, nil
	}
	return project(mergeByID(sent, received)), nil
}

// Update replaces the message with the payload's id, or inserts it with that
// id when absent. An id of zero lets the store assign one.
func (s *MessageService) Update(p *Principal, payload models.MessagePayload) error {
	if err := Authorize(p, RoleSetPrivileged...); err != nil {
		return err
	}
	if payload.ID < 0 {
		return fmt.Errorf("%w: message id %d", ErrInvalidRequest, payload.ID)
	}

	sender, err := s.userRepo.GetByUsername(payload.Sender)
	if err != nil {
		return fmt.Errorf("%w: sender %s: %v", ErrInvalidRequest, payload.Sender, err)
	}
	receiver, err := s.userRepo.GetByUsername(payload.Receiver)
	if err != nil {
		return fmt.Errorf("%w: receiver %s: %v", ErrInvalidRequest, payload.Receiver, err)
	}

	policy := repositories.CallerSupplied
	if payload.ID == 0 {
		policy = repositories.AutoAssign
	}
	message := &models.Message{
		ID:         payload.ID,
		Body:       payload.Message,
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
	}
	if err := s.messageRepo.Create(message, policy); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	s.audit.record(p, AuditMessageUpdated, strconv.FormatInt(message.ID, 10))
	return nil
}

// Delete removes a message by id. Any authenticated role may delete any
// message; no ownership check is made.
func (s *MessageService) Delete(p *Principal, id int64) error {
	if err := Authorize(p, RoleSetAnyone...); err != nil {
		return err
	}
	if err := s.messageRepo.DeleteByID(id); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}

	s.audit.record(p, AuditMessageDeleted, strconv.FormatInt(id, 10))
	return nil
}

func (s *MessageService) sentByUsername(username string) []models.MessagePayload {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		s.log.Debug("sent listing for unknown user", zap.String("username", username), zap.Error(err))
		return []models.MessagePayload{}
	}
	messages, err := s.messageRepo.SentBy(user.ID)
	if err != nil {
		s.log.Warn("failed to load sent messages", zap.Int64("user_id", user.ID), zap.Error(err))
		return []models.MessagePayload{}
	}
	return project(messages)
}

func (s *MessageService) receivedByUsername(username string) []models.MessagePayload {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		s.log.Debug("received listing for unknown user", zap.String("username", username), zap.Error(err))
		return []models.MessagePayload{}
	}
	messages, err := s.messageRepo.ReceivedBy(user.ID)
	if err != nil {
		s.log.Warn("failed to load received messages", zap.Int64("user_id", user.ID), zap.Error(err))
		return []models.MessagePayload{}
	}
	return project(messages)
}

// mergeByID returns the union of the given sets keyed by message id,
// ordered by id.
func mergeByID(sets ...[]models.Message) []models.Message {
	seen := make(map[int64]struct{})
	var merged []models.Message
	for _, set := range sets {
		for _, m := range set {
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			merged = append(merged, m)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return merged
}

func project(messages []models.Message) []models.MessagePayload {
	out := make([]models.MessagePayload, 0, len(messages))
	for i := range messages {
		out = append(out, messages[i].Payload())
	}
	return out
}
