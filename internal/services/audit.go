package services

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Audit routing keys.
const (
	AuditMessageUpdated = "message.updated"
	AuditMessageDeleted = "message.deleted"
	AuditRoleAdded      = "user.role_added"
	AuditRoleRemoved    = "user.role_removed"
)

// EventPublisher publishes a message body to an exchange. It is satisfied by
// *rabbitmq.Client.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// AuditEvent records a privileged or destructive change.
type AuditEvent struct {
	ID      string    `json:"id"`
	Action  string    `json:"action"`
	ActorID int64     `json:"actorId"`
	Actor   string    `json:"actor"`
	Subject string    `json:"subject"`
	At      time.Time `json:"at"`
}

// Auditor emits audit events. Publishing is best-effort: failures are logged
// and never returned. A nil publisher only logs.
type Auditor struct {
	publisher EventPublisher
	exchange  string
	log       *zap.Logger
}

// NewAuditor creates an Auditor. publisher may be nil.
func NewAuditor(publisher EventPublisher, exchange string, log *zap.Logger) *Auditor {
	return &Auditor{publisher: publisher, exchange: exchange, log: log}
}

func (a *Auditor) record(actor *Principal, action, subject string) {
	if a == nil {
		return
	}
	ev := AuditEvent{
		ID:      uuid.NewString(),
		Action:  action,
		ActorID: actor.UserID,
		Actor:   actor.Username,
		Subject: subject,
		At:      time.Now().UTC(),
	}
	a.log.Info("audit",
		zap.String("event_id", ev.ID),
		zap.String("action", ev.Action),
		zap.String("actor", ev.Actor),
		zap.String("subject", ev.Subject),
	)
	if a.publisher == nil {
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		a.log.Warn("failed to marshal audit event", zap.Error(err))
		return
	}
	if err := a.publisher.Publish(a.exchange, action, body); err != nil {
		a.log.Warn("failed to publish audit event", zap.String("action", action), zap.Error(err))
	}
}
