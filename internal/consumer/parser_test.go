package consumer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONDeadLetterParser_Parse(t *testing.T) {
	fixed := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T, p *JSONDeadLetterParser, body string)
	}{
		{
			name: "full letter",
			body: `{"event":{"id":"evt-1","type":"ledger.refund","payload":{"refund_id":"r-1","amount":12.5},"metadata":{"session_id":"s-1","environment":"production","source":"practice-web"}},"attempts":5,"last_error":"transport failure: 503","dead_lettered_at":"2026-03-04T09:00:00Z"}`,
		},
		{
			name: "missing timestamp is stamped on receipt",
			body: `{"event":{"id":"evt-2","type":"ledger.refund"},"attempts":3}`,
		},
		{name: "invalid json", body: `{invalid`, wantErr: true},
		{name: "missing event id", body: `{"event":{"type":"ledger.refund"}}`, wantErr: true},
		{name: "missing event type", body: `{"event":{"id":"evt-3"}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewJSONDeadLetterParser()
			parser.now = func() time.Time { return fixed }

			letter, err := parser.Parse([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, letter)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, letter.Event.ID)
			assert.Equal(t, "ledger.refund", letter.Event.Type)
			assert.False(t, letter.DeadLetteredAt.IsZero())
		})
	}
}

func TestJSONDeadLetterParser_Parse_Fields(t *testing.T) {
	fixed := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	parser := NewJSONDeadLetterParser()
	parser.now = func() time.Time { return fixed }

	letter, err := parser.Parse([]byte(`{"event":{"id":"evt-1","type":"ledger.refund","payload":{"amount":12.5}},"attempts":5,"last_error":"boom"}`))
	require.NoError(t, err)

	assert.Equal(t, 5, letter.Attempts)
	assert.Equal(t, "boom", letter.LastError)
	assert.Equal(t, 12.5, letter.Event.Payload["amount"])
	assert.Equal(t, fixed, letter.DeadLetteredAt)

	stamped, err := parser.Parse([]byte(`{"event":{"id":"evt-1","type":"ledger.refund"},"dead_lettered_at":"2026-03-04T09:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC), stamped.DeadLetteredAt.UTC())
}
