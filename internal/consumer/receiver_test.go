package consumer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockDeadLetterConsumer is a mock implementation of queue.DeadLetterConsumer
type MockDeadLetterConsumer struct {
	mock.Mock
}

func (m *MockDeadLetterConsumer) ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.ReceiveMessageOutput), args.Error(1)
}

func (m *MockDeadLetterConsumer) DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.DeleteMessageOutput), args.Error(1)
}

func (m *MockDeadLetterConsumer) QueueURL() string {
	args := m.Called()
	return args.String(0)
}

func testReceiverConfig() ReceiverConfig {
	return ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 20,
		ErrorBackoff:    5 * time.Millisecond,
		MaxErrorBackoff: 20 * time.Millisecond,
	}
}

func receiveMessages(out <-chan types.Message, want int, timeout time.Duration) []types.Message {
	var received []types.Message
	deadline := time.After(timeout)
	for len(received) < want {
		select {
		case msg, ok := <-out:
			if !ok {
				return received
			}
			received = append(received, msg)
		case <-deadline:
			return received
		}
	}
	return received
}

func TestReceiver_Start_Success(t *testing.T) {
	mockConsumer := new(MockDeadLetterConsumer)
	receiver := NewReceiver(mockConsumer, testReceiverConfig(), zap.NewNop())

	mockConsumer.On("QueueURL").Return(testQueueURL)

	messages := []types.Message{
		{MessageId: aws.String("msg-1"), Body: aws.String(`{"event":{"id":"1"}}`)},
		{MessageId: aws.String("msg-2"), Body: aws.String(`{"event":{"id":"2"}}`)},
	}

	mockConsumer.On("ReceiveMessages", mock.Anything, mock.MatchedBy(func(in *sqs.ReceiveMessageInput) bool {
		return aws.ToString(in.QueueUrl) == testQueueURL && in.MaxNumberOfMessages == 10
	})).Return(&sqs.ReceiveMessageOutput{Messages: messages}, nil).Once()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.Anything).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan types.Message, 10)
	go receiver.Start(ctx, out)

	received := receiveMessages(out, 2, time.Second)

	require.Len(t, received, 2)
	assert.Equal(t, "msg-1", aws.ToString(received[0].MessageId))
	assert.Equal(t, "msg-2", aws.ToString(received[1].MessageId))
}

func TestReceiver_Start_RecoversAfterReceiveErrors(t *testing.T) {
	mockConsumer := new(MockDeadLetterConsumer)
	receiver := NewReceiver(mockConsumer, testReceiverConfig(), zap.NewNop())

	mockConsumer.On("QueueURL").Return(testQueueURL)

	receiveErr := errors.New("SQS connection error")
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.Anything).Return(nil, receiveErr).Twice()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.Anything).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{{MessageId: aws.String("msg-1")}}}, nil).Once()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.Anything).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan types.Message, 10)
	go receiver.Start(ctx, out)

	received := receiveMessages(out, 1, 2*time.Second)

	require.Len(t, received, 1)
	assert.Equal(t, "msg-1", aws.ToString(received[0].MessageId))
}

func TestReceiver_Start_StopsDuringErrorBackoff(t *testing.T) {
	mockConsumer := new(MockDeadLetterConsumer)
	config := testReceiverConfig()
	config.ErrorBackoff = time.Minute
	config.MaxErrorBackoff = time.Minute
	receiver := NewReceiver(mockConsumer, config, zap.NewNop())

	mockConsumer.On("QueueURL").Return(testQueueURL)
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.Anything).Return(nil, errors.New("SQS connection error"))

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan types.Message, 1)
	done := make(chan struct{})

	go func() {
		receiver.Start(ctx, out)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Receiver did not stop while backing off")
	}

	_, ok := <-out
	assert.False(t, ok)
	mockConsumer.AssertNumberOfCalls(t, "ReceiveMessages", 1)
}

func TestReceiver_Start_ContextCancellation(t *testing.T) {
	mockConsumer := new(MockDeadLetterConsumer)
	receiver := NewReceiver(mockConsumer, testReceiverConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan types.Message, 10)

	cancel()

	receiver.Start(ctx, out)

	_, ok := <-out
	assert.False(t, ok, "Channel should be closed after context cancellation")
	mockConsumer.AssertNotCalled(t, "ReceiveMessages", mock.Anything, mock.Anything)
}

func TestReceiver_Start_BufferBackpressure(t *testing.T) {
	mockConsumer := new(MockDeadLetterConsumer)
	receiver := NewReceiver(mockConsumer, testReceiverConfig(), zap.NewNop())

	mockConsumer.On("QueueURL").Return(testQueueURL)

	messages := make([]types.Message, 5)
	for i := range messages {
		messages[i] = types.Message{MessageId: aws.String(fmt.Sprintf("msg-%d", i))}
	}

	mockConsumer.On("ReceiveMessages", mock.Anything, mock.Anything).
		Return(&sqs.ReceiveMessageOutput{Messages: messages}, nil).Once()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.Anything).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan types.Message, 2) // Small buffer
	go receiver.Start(ctx, out)

	var received []types.Message
	for len(received) < 5 {
		select {
		case msg := <-out:
			received = append(received, msg)
			time.Sleep(5 * time.Millisecond) // Simulate slow consumer
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for messages")
		}
	}

	for i, msg := range received {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), aws.ToString(msg.MessageId))
	}
}
