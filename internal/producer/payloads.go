package producer

import "time"

// Payload is one variant of the event payload union. The variant is selected by EventType.
type Payload interface {
	EventType() string
}

// AppointmentScheduled is emitted when an appointment is booked
type AppointmentScheduled struct {
	AppointmentID   string    `json:"appointment_id"`
	PatientID       string    `json:"patient_id"`
	ProviderID      string    `json:"provider_id"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Procedure       string    `json:"procedure"`
	Operatory       string    `json:"operatory,omitempty"`
}

func (AppointmentScheduled) EventType() string { return "appointment.scheduled" }

// AppointmentCancelled is emitted when a booked appointment is cancelled
type AppointmentCancelled struct {
	AppointmentID    string `json:"appointment_id"`
	PatientID        string `json:"patient_id"`
	CancelledBy      string `json:"cancelled_by"`
	Reason           string `json:"reason,omitempty"`
	LateCancellation bool   `json:"late_cancellation"`
}

func (AppointmentCancelled) EventType() string { return "appointment.cancelled" }

// AppointmentCompleted is emitted when the patient is checked out
type AppointmentCompleted struct {
	AppointmentID   string   `json:"appointment_id"`
	PatientID       string   `json:"patient_id"`
	ProviderID      string   `json:"provider_id"`
	ProcedureCodes  []string `json:"procedure_codes"`
	DurationMinutes int      `json:"duration_minutes"`
}

func (AppointmentCompleted) EventType() string { return "appointment.completed" }

// LedgerAdjustment is a manual correction of a patient balance
type LedgerAdjustment struct {
	EntryID   string  `json:"entry_id"`
	PatientID string  `json:"patient_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Category  string  `json:"category"`
	Reason    string  `json:"reason,omitempty"`
}

func (LedgerAdjustment) EventType() string { return "ledger.adjustment" }

// LedgerRefund is money returned to a patient or insurer
type LedgerRefund struct {
	EntryID         string  `json:"entry_id"`
	OriginalEntryID string  `json:"original_entry_id"`
	PatientID       string  `json:"patient_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	Method          string  `json:"method"`
}

func (LedgerRefund) EventType() string { return "ledger.refund" }

// DiagnosisCreated is emitted when a provider charts a finding
type DiagnosisCreated struct {
	DiagnosisID  string   `json:"diagnosis_id"`
	PatientID    string   `json:"patient_id"`
	ProviderID   string   `json:"provider_id"`
	Code         string   `json:"code"`
	ToothNumbers []string `json:"tooth_numbers"`
	Suggested    bool     `json:"suggested"`
	Notes        *string  `json:"notes"`
}

func (DiagnosisCreated) EventType() string { return "diagnosis.created" }

// AdminRoleChanged is emitted when a staff member's role changes
type AdminRoleChanged struct {
	UserID       string `json:"user_id"`
	PreviousRole string `json:"previous_role"`
	NewRole      string `json:"new_role"`
}

func (AdminRoleChanged) EventType() string { return "admin.role_changed" }

// AdminSettingChanged is emitted when a practice setting is edited
type AdminSettingChanged struct {
	Setting       string `json:"setting"`
	PreviousValue any    `json:"previous_value,omitempty"`
	NewValue      any    `json:"new_value"`
}

func (AdminSettingChanged) EventType() string { return "admin.setting_changed" }

// Catalog lists every payload variant the application emits
func Catalog() []Payload {
	return []Payload{
		AppointmentScheduled{},
		AppointmentCancelled{},
		AppointmentCompleted{},
		LedgerAdjustment{},
		LedgerRefund{},
		DiagnosisCreated{},
		AdminRoleChanged{},
		AdminSettingChanged{},
	}
}
