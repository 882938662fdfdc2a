package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

// MockAPI is a mock implementation of API
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.SendMessageOutput), args.Error(1)
}

func (m *MockAPI) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.ReceiveMessageOutput), args.Error(1)
}

func (m *MockAPI) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.DeleteMessageOutput), args.Error(1)
}

func testLetter() domain.DeadLetter {
	return domain.DeadLetter{
		Event: domain.Event{
			ID:       "evt-1",
			Type:     "ledger.adjustment",
			Payload:  map[string]any{"amount": 25.0},
			Metadata: domain.Metadata{Source: "front-desk"},
		},
		Attempts:       5,
		LastError:      "transport failure: unexpected status 503",
		DeadLetteredAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestClient_PublishDeadLetter(t *testing.T) {
	api := new(MockAPI)
	api.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
		var letter domain.DeadLetter
		if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &letter); err != nil {
			return false
		}
		return aws.ToString(in.QueueUrl) == "http://localhost:9324/queue/dead-letters" &&
			letter.Event.ID == "evt-1" &&
			letter.Attempts == 5 &&
			aws.ToString(in.MessageAttributes["EventType"].StringValue) == "ledger.adjustment"
	})).Return(&sqs.SendMessageOutput{}, nil).Once()

	client := NewClientWithAPI(api, "http://localhost:9324/queue/dead-letters", zap.NewNop())

	require.NoError(t, client.PublishDeadLetter(context.Background(), testLetter()))
	api.AssertExpectations(t)
}

func TestClient_PublishDeadLetter_SendError(t *testing.T) {
	sendErr := errors.New("queue does not exist")

	api := new(MockAPI)
	api.On("SendMessage", mock.Anything, mock.Anything).Return(nil, sendErr).Once()

	client := NewClientWithAPI(api, "http://localhost:9324/queue/dead-letters", zap.NewNop())

	err := client.PublishDeadLetter(context.Background(), testLetter())
	assert.ErrorIs(t, err, sendErr)
}

func TestClient_ReceiveAndDelete(t *testing.T) {
	api := new(MockAPI)
	api.On("ReceiveMessage", mock.Anything, mock.Anything).Return(&sqs.ReceiveMessageOutput{}, nil).Once()
	api.On("DeleteMessage", mock.Anything, mock.Anything).Return(&sqs.DeleteMessageOutput{}, nil).Once()

	client := NewClientWithAPI(api, "q", zap.NewNop())
	assert.Equal(t, "q", client.QueueURL())

	_, err := client.ReceiveMessages(context.Background(), &sqs.ReceiveMessageInput{QueueUrl: aws.String("q")})
	require.NoError(t, err)
	_, err = client.DeleteMessage(context.Background(), &sqs.DeleteMessageInput{QueueUrl: aws.String("q")})
	require.NoError(t, err)

	api.AssertExpectations(t)
}
