package consumer

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/queue"
)

// ReceiverConfig configures the SQS receiver
type ReceiverConfig struct {
	MaxMessages     int32
	WaitTimeSeconds int32
	ErrorBackoff    time.Duration
	MaxErrorBackoff time.Duration
}

// Receiver handles receiving dead letter messages from SQS
type Receiver struct {
	consumer queue.DeadLetterConsumer
	config   ReceiverConfig
	log      *zap.Logger
}

// NewReceiver creates a new SQS receiver
func NewReceiver(consumer queue.DeadLetterConsumer, config ReceiverConfig, log *zap.Logger) *Receiver {
	if config.ErrorBackoff <= 0 {
		config.ErrorBackoff = time.Second
	}
	if config.MaxErrorBackoff < config.ErrorBackoff {
		config.MaxErrorBackoff = 30 * time.Second
	}
	return &Receiver{
		consumer: consumer,
		config:   config,
		log:      log,
	}
}

// Start begins receiving messages and sends them to the output channel.
// Consecutive receive errors back off exponentially.
func (r *Receiver) Start(ctx context.Context, out chan<- types.Message) {
	defer close(out)

	errBackoff := backoff.NewExponentialBackOff()
	errBackoff.InitialInterval = r.config.ErrorBackoff
	errBackoff.MaxInterval = r.config.MaxErrorBackoff
	errBackoff.Reset()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Receiver shutting down")
			return
		default:
		}

		result, err := r.consumer.ReceiveMessages(ctx, &awssqs.ReceiveMessageInput{
			QueueUrl:              aws.String(r.consumer.QueueURL()),
			MaxNumberOfMessages:   r.config.MaxMessages,
			WaitTimeSeconds:       r.config.WaitTimeSeconds,
			MessageAttributeNames: []string{"All"},
		})
		if err != nil {
			wait := errBackoff.NextBackOff()
			r.log.Error("Error receiving messages from SQS",
				zap.Error(err),
				zap.Duration("retry_in", wait))
			select {
			case <-ctx.Done():
				r.log.Info("Receiver shutting down")
				return
			case <-time.After(wait):
			}
			continue
		}
		errBackoff.Reset()

		if len(result.Messages) == 0 {
			continue
		}

		r.log.Info("Received dead letters from SQS", zap.Int("message_count", len(result.Messages)))

		for _, msg := range result.Messages {
			select {
			case <-ctx.Done():
				r.log.Info("Receiver shutting down while sending messages")
				return
			case out <- msg:
			}
		}
	}
}
