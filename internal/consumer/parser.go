package consumer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

var ErrMalformedDeadLetter = errors.New("malformed dead letter")

// JSONDeadLetterParser implements MessageParser for JSON dead letters published by the client queue
type JSONDeadLetterParser struct {
	now func() time.Time
}

// NewJSONDeadLetterParser creates a new JSON dead letter parser
func NewJSONDeadLetterParser() *JSONDeadLetterParser {
	return &JSONDeadLetterParser{now: time.Now}
}

// Parse parses a JSON message body into a DeadLetter.
// Letters without an event id or type cannot be deduplicated or grouped and are rejected.
func (p *JSONDeadLetterParser) Parse(body []byte) (*domain.DeadLetter, error) {
	var letter domain.DeadLetter
	if err := json.Unmarshal(body, &letter); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	if letter.Event.ID == "" {
		return nil, fmt.Errorf("%w: missing event id", ErrMalformedDeadLetter)
	}
	if letter.Event.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedDeadLetter)
	}

	if letter.DeadLetteredAt.IsZero() {
		letter.DeadLetteredAt = p.now()
	}

	return &letter, nil
}
