package idempotency

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/config"
)

const keyPrefix = "telemetry:event:"

// ValkeyStore keeps seen IDs in Valkey with SET NX EX so that every API replica
// shares the same view
type ValkeyStore struct {
	client valkey.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewValkeyStore connects to the configured Valkey server
func NewValkeyStore(cfg config.Valkey, log *zap.Logger) (*ValkeyStore, error) {
	addr := net.JoinHostPort(cfg.Host, cfg.Port)

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", addr, err)
	}

	log.Info("Valkey idempotency store connected",
		zap.String("addr", addr),
		zap.Duration("ttl", cfg.IdempotencyTTL))

	return &ValkeyStore{
		client: client,
		ttl:    cfg.IdempotencyTTL,
		log:    log,
	}, nil
}

func (s *ValkeyStore) Seen(ctx context.Context, id string) (bool, error) {
	seconds := int64(s.ttl / time.Second)
	if seconds <= 0 {
		seconds = 1
	}

	cmd := s.client.B().Set().Key(keyPrefix + id).Value("1").Nx().ExSeconds(seconds).Build()
	err := s.client.Do(ctx, cmd).Error()
	switch {
	case err == nil:
		return false, nil
	case valkey.IsValkeyNil(err):
		// NX refused the write: the key already exists
		return true, nil
	default:
		return false, fmt.Errorf("failed to record event id in valkey: %w", err)
	}
}

// Ping checks if the valkey connection is alive
func (s *ValkeyStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

func (s *ValkeyStore) Close() {
	s.client.Close()
}
