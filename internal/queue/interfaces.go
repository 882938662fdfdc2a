package queue

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/dto"
)

// ErrUndeliverable marks a Send failure that retrying cannot fix, such as a
// batch the server refused as malformed. The whole batch is dead-lettered.
var ErrUndeliverable = errors.New("batch undeliverable")

// Sender delivers a batch and reports which events were accepted or rejected
type Sender interface {
	Send(ctx context.Context, events []domain.Event) (*dto.PublishEventsResponse, error)
}

// DeadLetterSink receives events whose delivery attempts were exhausted
type DeadLetterSink interface {
	PublishDeadLetter(ctx context.Context, letter domain.DeadLetter) error
}

// DeadLetterConsumer defines the interface for consuming dead letters from a queue
type DeadLetterConsumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	QueueURL() string
}
