package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/config"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

func testConsumerConfig() *config.Config {
	return &config.Config{
		Consumer: config.Consumer{
			BatchSizeMax:    10,
			BatchTimeoutSec: 1,
		},
	}
}

func TestConsumer_Start_PipelineCoordination(t *testing.T) {
	mockConsumer := new(MockDeadLetterConsumer)
	mockRepo := new(MockDeadLetterRepository)

	mockConsumer.On("QueueURL").Return(testQueueURL)

	messages := []types.Message{
		{
			MessageId:     aws.String("msg-1"),
			Body:          aws.String(`{"event":{"id":"evt-1","type":"diagnosis.created","payload":{"diagnosis_id":"d-1"}},"attempts":5,"last_error":"transport failure"}`),
			ReceiptHandle: aws.String("receipt-1"),
		},
		{
			MessageId:     aws.String("msg-2"),
			Body:          aws.String(`not json`),
			ReceiptHandle: aws.String("receipt-2"),
		},
	}

	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: messages}, nil).Once()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&sqs.DeleteMessageOutput{}, nil)

	mockRepo.On("InsertDeadLetters", mock.Anything, mock.MatchedBy(func(letters []*domain.DeadLetter) bool {
		return len(letters) == 1 && letters[0].Event.ID == "evt-1" && letters[0].Attempts == 5
	})).Return(1, nil)

	consumer := NewConsumer(testConsumerConfig(), mockConsumer, mockRepo, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := consumer.Start(ctx)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// One delete for the malformed message, one for the archived letter
	mockConsumer.AssertNumberOfCalls(t, "DeleteMessage", 2)
}

func TestConsumer_Start_GracefulShutdown(t *testing.T) {
	mockConsumer := new(MockDeadLetterConsumer)
	mockRepo := new(MockDeadLetterRepository)

	mockConsumer.On("QueueURL").Return(testQueueURL).Maybe()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()

	consumer := NewConsumer(testConsumerConfig(), mockConsumer, mockRepo, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- consumer.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Graceful shutdown took too long")
	}

	mockRepo.AssertNotCalled(t, "InsertDeadLetters", mock.Anything, mock.Anything)
}

func TestConsumer_NewConsumer_ComponentInitialization(t *testing.T) {
	cfg := testConsumerConfig()
	cfg.Consumer.BatchSizeMax = 100
	cfg.Consumer.BatchTimeoutSec = 5

	consumer := NewConsumer(cfg, new(MockDeadLetterConsumer), new(MockDeadLetterRepository), zap.NewNop())

	assert.NotNil(t, consumer)
	assert.NotNil(t, consumer.receiver)
	assert.NotNil(t, consumer.parser)
	assert.NotNil(t, consumer.batchWriter)
	assert.Equal(t, 100, consumer.batchWriter.config.MaxBatchSize)
	assert.Equal(t, 5*time.Second, consumer.batchWriter.config.FlushTimeout)
}
