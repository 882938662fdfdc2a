package consumer

import (
	"context"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

// Envelope wraps a dead letter with acknowledgment callbacks
type Envelope struct {
	Letter *domain.DeadLetter
	ack    func(context.Context) error
	nack   func(context.Context) error
}

// NewEnvelope creates a new message envelope
func NewEnvelope(letter *domain.DeadLetter, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		Letter: letter,
		ack:    ack,
		nack:   nack,
	}
}

// Ack acknowledges successful processing
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack != nil {
		return e.ack(ctx)
	}
	return nil
}

// Nack negatively acknowledges processing
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack != nil {
		return e.nack(ctx)
	}
	return nil
}
