package sqs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	envConfig "github.com/DentaMind/SmartDentalAI-sub016/internal/config"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

// API is the subset of the SQS client used here
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Client publishes and consumes dead letters on an SQS queue
type Client struct {
	api      API
	queueURL string
	log      *zap.Logger
}

// NewClient creates a new SQS client
func NewClient(ctx context.Context, SQSConfig envConfig.SQS, log *zap.Logger) (*Client, error) {
	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(SQSConfig.Region),
	}

	var clientOpts []func(*sqs.Options)

	// Configure for local development with ElasticMQ
	if SQSConfig.Endpoint != "" {
		log.Info("Configuring SQS for local development",
			zap.String("endpoint", SQSConfig.Endpoint))
		configOpts = append(configOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(SQSConfig.Endpoint)
		})
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("SQS client created",
		zap.String("region", SQSConfig.Region),
		zap.String("queue_url", SQSConfig.QueueURL))

	return NewClientWithAPI(sqs.NewFromConfig(cfg, clientOpts...), SQSConfig.QueueURL, log), nil
}

// NewClientWithAPI wraps an existing SQS API implementation
func NewClientWithAPI(api API, queueURL string, log *zap.Logger) *Client {
	return &Client{
		api:      api,
		queueURL: queueURL,
		log:      log,
	}
}

// ReceiveMessages receives messages from SQS
func (c *Client) ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
	return c.api.ReceiveMessage(ctx, input)
}

// DeleteMessage deletes a message from SQS
func (c *Client) DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error) {
	return c.api.DeleteMessage(ctx, input)
}

// QueueURL returns the configured queue URL
func (c *Client) QueueURL() string {
	return c.queueURL
}

// PublishDeadLetter sends a dead-lettered event to the queue as JSON
func (c *Client) PublishDeadLetter(ctx context.Context, letter domain.DeadLetter) error {
	body, err := json.Marshal(letter)
	if err != nil {
		c.log.Error("Failed to marshal dead letter",
			zap.String("event_id", letter.Event.ID),
			zap.String("event_type", letter.Event.Type),
			zap.Error(err))
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	_, err = c.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"EventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(letter.Event.Type),
			},
			"Source": {
				DataType:    aws.String("String"),
				StringValue: aws.String(letter.Event.Metadata.Source),
			},
		},
	})
	if err != nil {
		c.log.Error("Failed to send dead letter to SQS",
			zap.String("event_id", letter.Event.ID),
			zap.String("event_type", letter.Event.Type),
			zap.Error(err))
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	c.log.Info("Dead letter published to SQS",
		zap.String("event_id", letter.Event.ID),
		zap.String("event_type", letter.Event.Type),
		zap.Int("attempts", letter.Attempts))

	return nil
}
