package consumer

import (
	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

// MessageParser defines the interface for parsing raw message bytes into dead letters
type MessageParser interface {
	Parse(body []byte) (*domain.DeadLetter, error)
}
