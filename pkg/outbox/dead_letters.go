package outbox

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
	"github.com/drinkroute/distribution-backend/pkg/enums"
)

// DeadLetters copies events the relay gave up on into outbox_dlq.
type DeadLetters struct{}

func NewDeadLetters() *DeadLetters {
	return &DeadLetters{}
}

// Bury stores a copy of event with the reason it left the queue. The
// attempt count is the one observed before the final failure.
func (DeadLetters) Bury(tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	if tx == nil {
		return errNoTx
	}
	if !reason.IsValid() {
		return fmt.Errorf("outbox: invalid dead letter reason %q", reason)
	}
	row := models.OutboxDLQ{
		ID:            uuid.New(),
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if cause != nil {
		msg := clip(cause.Error())
		row.ErrorMessage = &msg
	}
	return tx.Create(&row).Error
}
