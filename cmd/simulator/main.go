package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/config"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/logger"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/producer"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/queue"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/queue/sqs"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/transport"
)

// malformedRefund reuses the refund type with a string amount so the server rejects it
type malformedRefund struct {
	EntryID string `json:"entry_id"`
	Amount  string `json:"amount"`
}

func (malformedRefund) EventType() string { return "ledger.refund" }

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment, "simulator")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := transport.NewClient(transport.Config{
		Endpoint:       cfg.Transport.Endpoint,
		RequestTimeout: cfg.Transport.RequestTimeout,
		Codec:          cfg.Transport.Codec,
	}, log)
	if err != nil {
		log.Fatal("Failed to create transport client", zap.Error(err))
	}

	var queueOpts []queue.Option
	if cfg.SQS.Enabled() {
		sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
		if err != nil {
			log.Fatal("Failed to create SQS client", zap.Error(err))
		}
		queueOpts = append(queueOpts, queue.WithDeadLetterSink(sqsClient))
	}

	q := queue.New(client, queue.Config{
		BatchSize:       cfg.Queue.BatchSize,
		Capacity:        cfg.Queue.Capacity,
		MaxAttempts:     cfg.Queue.MaxAttempts,
		FlushInterval:   cfg.Queue.FlushInterval,
		InitialBackoff:  cfg.Queue.InitialBackoff,
		MaxBackoff:      cfg.Queue.MaxBackoff,
		DeadLetterLimit: cfg.Queue.DeadLetterLimit,
	}, log, queueOpts...)

	queueCtx, cancelQueue := context.WithCancel(context.Background())
	defer cancelQueue()
	go q.Start(queueCtx)

	emitter := producer.NewEmitter(q, producer.Config{
		Environment: cfg.Service.Environment,
		Source:      cfg.Service.Source,
	}, log)

	actors := make([]*producer.Emitter, max(cfg.Simulator.Actors, 1))
	for i := range actors {
		actors[i] = emitter.ForActor(fmt.Sprintf("staff-%d", i+1))
	}

	log.Info("Simulator started",
		zap.String("endpoint", cfg.Transport.Endpoint),
		zap.String("codec", cfg.Transport.Codec),
		zap.Duration("interval", cfg.Simulator.Interval),
		zap.Int("actors", len(actors)))

	ticker := time.NewTicker(cfg.Simulator.Interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			actor := actors[rand.IntN(len(actors))]
			if rand.Float64() < cfg.Simulator.InvalidRatio {
				actor.Emit(malformedRefund{EntryID: uuid.NewString(), Amount: "twelve"})
				continue
			}
			actor.Emit(randomPayload())
		}
	}

	log.Info("Draining queue before exit", zap.Int("queued", q.Len()))

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := q.Drain(drainCtx); err != nil {
		log.Warn("Queue not fully drained", zap.Error(err), zap.Int("queued", q.Len()))
	}
	cancelQueue()

	s := q.Stats()
	log.Info("Simulator stopped",
		zap.Int64("enqueued", s.Enqueued),
		zap.Int64("accepted", s.Accepted),
		zap.Int64("rejected", s.Rejected),
		zap.Int64("duplicates", s.Duplicates),
		zap.Int64("dead_lettered", s.DeadLettered),
		zap.Int64("evicted", s.Evicted))
}

var (
	procedures = []string{"D0120", "D1110", "D2391", "D2740", "D3330", "D7140"}
	providers  = []string{"dr-okafor", "dr-lindqvist", "hyg-moreau"}
	categories = []string{"insurance_writeoff", "courtesy", "correction"}
	roles      = []string{"front_desk", "hygienist", "dentist", "office_manager"}
)

func pick(values []string) string {
	return values[rand.IntN(len(values))]
}

func patientID() string {
	return fmt.Sprintf("patient-%04d", rand.IntN(500))
}

func randomPayload() producer.Payload {
	switch rand.IntN(8) {
	case 0:
		return producer.AppointmentScheduled{
			AppointmentID:   uuid.NewString(),
			PatientID:       patientID(),
			ProviderID:      pick(providers),
			StartsAt:        time.Now().Add(time.Duration(rand.IntN(14*24)) * time.Hour).Truncate(15 * time.Minute),
			DurationMinutes: 30 + 15*rand.IntN(5),
			Procedure:       pick(procedures),
		}
	case 1:
		return producer.AppointmentCancelled{
			AppointmentID:    uuid.NewString(),
			PatientID:        patientID(),
			CancelledBy:      "patient",
			LateCancellation: rand.IntN(4) == 0,
		}
	case 2:
		return producer.AppointmentCompleted{
			AppointmentID:   uuid.NewString(),
			PatientID:       patientID(),
			ProviderID:      pick(providers),
			ProcedureCodes:  []string{pick(procedures), pick(procedures)},
			DurationMinutes: 30 + 15*rand.IntN(5),
		}
	case 3:
		return producer.LedgerAdjustment{
			EntryID:   uuid.NewString(),
			PatientID: patientID(),
			Amount:    float64(rand.IntN(20000)) / 100,
			Currency:  "USD",
			Category:  pick(categories),
		}
	case 4:
		return producer.LedgerRefund{
			EntryID:         uuid.NewString(),
			OriginalEntryID: uuid.NewString(),
			PatientID:       patientID(),
			Amount:          float64(rand.IntN(50000)) / 100,
			Currency:        "USD",
			Method:          "card",
		}
	case 5:
		var notes *string
		if rand.IntN(2) == 0 {
			n := "watch on next recall"
			notes = &n
		}
		return producer.DiagnosisCreated{
			DiagnosisID:  uuid.NewString(),
			PatientID:    patientID(),
			ProviderID:   pick(providers),
			Code:         "K02.52",
			ToothNumbers: []string{fmt.Sprint(1 + rand.IntN(32))},
			Suggested:    rand.IntN(3) == 0,
			Notes:        notes,
		}
	case 6:
		return producer.AdminRoleChanged{
			UserID:       fmt.Sprintf("staff-%d", 1+rand.IntN(20)),
			PreviousRole: pick(roles),
			NewRole:      pick(roles),
		}
	default:
		return producer.AdminSettingChanged{
			Setting:       "reminders.sms_lead_hours",
			PreviousValue: 24,
			NewValue:      24 + 24*rand.IntN(3),
		}
	}
}
