package producer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/registry"
)

// MockEnqueuer is a mock implementation of Enqueuer
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(event domain.Event) {
	m.Called(event)
}

func TestEmitter_Emit_BuildsEnvelope(t *testing.T) {
	producedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	q := new(MockEnqueuer)
	q.On("Enqueue", mock.MatchedBy(func(e domain.Event) bool {
		return e.ID == "evt-1" &&
			e.Type == "ledger.refund" &&
			e.Payload["amount"] == 42.5 &&
			e.Payload["method"] == "card" &&
			e.Metadata == domain.Metadata{
				ProducedAt:  producedAt,
				SessionID:   "session-1",
				ActorID:     "user-7",
				Environment: "test",
				Source:      "front-desk",
			}
	})).Once()

	e := NewEmitter(q, Config{Environment: "test", Source: "front-desk", SessionID: "session-1"}, zap.NewNop(),
		WithClock(func() time.Time { return producedAt }),
		WithIDGenerator(func() string { return "evt-1" }))

	id := e.ForActor("user-7").LedgerRefund(LedgerRefund{
		EntryID:         "le-2",
		OriginalEntryID: "le-1",
		PatientID:       "p-1",
		Amount:          42.5,
		Currency:        "USD",
		Method:          "card",
	})

	assert.Equal(t, "evt-1", id)
	q.AssertExpectations(t)
}

func TestEmitter_GeneratesIDsAndSession(t *testing.T) {
	var events []domain.Event
	q := new(MockEnqueuer)
	q.On("Enqueue", mock.Anything).Run(func(args mock.Arguments) {
		events = append(events, args.Get(0).(domain.Event))
	})

	e := NewEmitter(q, Config{Environment: "test", Source: "sim"}, zap.NewNop())

	e.AdminRoleChanged(AdminRoleChanged{UserID: "u1", PreviousRole: "assistant", NewRole: "hygienist"})
	e.AdminRoleChanged(AdminRoleChanged{UserID: "u2", PreviousRole: "assistant", NewRole: "admin"})

	require.Len(t, events, 2)
	assert.NotEmpty(t, events[0].ID)
	assert.NotEqual(t, events[0].ID, events[1].ID)
	assert.NotEmpty(t, events[0].Metadata.SessionID)
	assert.Equal(t, events[0].Metadata.SessionID, events[1].Metadata.SessionID)
	assert.Empty(t, events[0].Metadata.ActorID)
}

func TestEmitter_UnencodablePayloadIsDropped(t *testing.T) {
	q := new(MockEnqueuer)
	e := NewEmitter(q, Config{}, zap.NewNop())

	id := e.AdminSettingChanged(AdminSettingChanged{Setting: "reminder", NewValue: make(chan int)})

	assert.Empty(t, id)
	q.AssertNotCalled(t, "Enqueue", mock.Anything)
}

func TestFieldSpecOf(t *testing.T) {
	assert.Equal(t, domain.FieldSpec{
		"appointment_id":   {Required: true, Kind: domain.KindString},
		"patient_id":       {Required: true, Kind: domain.KindString},
		"provider_id":      {Required: true, Kind: domain.KindString},
		"starts_at":        {Required: true, Kind: domain.KindString},
		"duration_minutes": {Required: true, Kind: domain.KindNumber},
		"procedure":        {Required: true, Kind: domain.KindString},
		"operatory":        {Required: false, Kind: domain.KindString},
	}, FieldSpecOf(AppointmentScheduled{}))

	assert.Equal(t, domain.FieldSpec{
		"diagnosis_id":  {Required: true, Kind: domain.KindString},
		"patient_id":    {Required: true, Kind: domain.KindString},
		"provider_id":   {Required: true, Kind: domain.KindString},
		"code":          {Required: true, Kind: domain.KindString},
		"tooth_numbers": {Required: true, Kind: domain.KindArray},
		"suggested":     {Required: true, Kind: domain.KindBoolean},
		"notes":         {Required: false, Kind: domain.KindString},
	}, FieldSpecOf(&DiagnosisCreated{}))

	assert.Equal(t, domain.FieldSpec{
		"setting":        {Required: true, Kind: domain.KindString},
		"previous_value": {Required: false, Kind: domain.KindAny},
		"new_value":      {Required: false, Kind: domain.KindAny},
	}, FieldSpecOf(AdminSettingChanged{}))
}

func TestCatalogSpecs_AreValidAndUnique(t *testing.T) {
	specs := CatalogSpecs()
	assert.Len(t, specs, len(Catalog()))
	for eventType, spec := range specs {
		assert.NoError(t, spec.Validate(), eventType)
	}
}

// Emitted payloads must pass validation against the field spec derived from their own struct.
func TestEmittedPayloadsValidateAgainstCatalog(t *testing.T) {
	reg := registry.New(registry.Config{}, zap.NewNop())
	for eventType, spec := range CatalogSpecs() {
		_, err := reg.Register(eventType, spec)
		require.NoError(t, err)
	}

	var events []domain.Event
	q := new(MockEnqueuer)
	q.On("Enqueue", mock.Anything).Run(func(args mock.Arguments) {
		events = append(events, args.Get(0).(domain.Event))
	})

	notes := "mesial caries"
	e := NewEmitter(q, Config{Environment: "test", Source: "chairside"}, zap.NewNop())
	e.AppointmentScheduled(AppointmentScheduled{
		AppointmentID: "a1", PatientID: "p1", ProviderID: "d1",
		StartsAt: time.Now(), DurationMinutes: 60, Procedure: "cleaning",
	})
	e.AppointmentCompleted(AppointmentCompleted{
		AppointmentID: "a1", PatientID: "p1", ProviderID: "d1",
		ProcedureCodes: []string{"D1110"}, DurationMinutes: 55,
	})
	e.DiagnosisCreated(DiagnosisCreated{
		DiagnosisID: "dx1", PatientID: "p1", ProviderID: "d1", Code: "K02.52",
		ToothNumbers: []string{"14"}, Notes: &notes,
	})
	e.DiagnosisCreated(DiagnosisCreated{
		DiagnosisID: "dx2", PatientID: "p1", ProviderID: "d1", Code: "K02.52",
		ToothNumbers: []string{"15"},
	})
	e.AdminSettingChanged(AdminSettingChanged{Setting: "reminder_hours", NewValue: 24})

	require.Len(t, events, 5)
	for _, event := range events {
		assert.NoError(t, reg.Validate(event), event.Type)
	}
}
