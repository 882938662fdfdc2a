package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/config"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/queue"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/repository"
)

// Consumer drains the dead-letter queue into the archive through a pipeline of stages
type Consumer struct {
	receiver    *Receiver
	parser      *ParserStage
	batchWriter *BatchWriter
}

// NewConsumer creates a new consumer with a pipeline architecture
func NewConsumer(cfg *config.Config, queueConsumer queue.DeadLetterConsumer, repo repository.DeadLetterRepository, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 20,
	}, log)

	parser := NewParserStage(queueConsumer, NewJSONDeadLetterParser(), log)

	batchWriter := NewBatchWriter(repo, BatchWriterConfig{
		MaxBatchSize: cfg.Consumer.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.Consumer.BatchTimeoutSec) * time.Second,
	}, log)

	return &Consumer{
		receiver:    receiver,
		parser:      parser,
		batchWriter: batchWriter,
	}
}

// Start runs the pipeline until ctx is cancelled and every stage has exited
func (c *Consumer) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, 100)
	envelopeChan := make(chan *Envelope, 100)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messageChan)
	}()

	go func() {
		defer wg.Done()
		c.parser.Start(ctx, messageChan, envelopeChan)
	}()

	go func() {
		defer wg.Done()
		c.batchWriter.Start(ctx, envelopeChan)
	}()

	wg.Wait()
	return nil
}
