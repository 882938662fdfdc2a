package service

import (
	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/dto"
)

const defaultListLimit = 100

// SchemaService exposes the registry read models and the administrative operations
type SchemaService struct {
	registry   SchemaRegistry
	aggregator Aggregator
	log        *zap.Logger
}

// NewSchemaService creates a new schema service
func NewSchemaService(reg SchemaRegistry, aggregator Aggregator, log *zap.Logger) *SchemaService {
	return &SchemaService{
		registry:   reg,
		aggregator: aggregator,
		log:        log,
	}
}

// SeedCatalog registers specs for types with no history; types already known are left alone
func (s *SchemaService) SeedCatalog(specs map[string]domain.FieldSpec) int {
	seeded := 0
	for eventType, fields := range specs {
		if _, err := s.registry.Register(eventType, fields); err != nil {
			s.log.Debug("Catalog type not seeded",
				zap.String("event_type", eventType),
				zap.Error(err))
			continue
		}
		seeded++
	}

	s.log.Info("Seeded schema catalog", zap.Int("seeded", seeded), zap.Int("catalog_size", len(specs)))
	return seeded
}

func (s *SchemaService) SchemaStats() dto.SchemaStatsResponse {
	st := s.registry.Stats()
	return dto.SchemaStatsResponse{
		TotalEventTypes:     st.TotalEventTypes,
		TotalSchemaVersions: st.TotalSchemaVersions,
		EvolvedSchemas:      st.EvolvedSchemas,
		RecentChanges24h:    st.RecentChanges24h,
	}
}

// Changes returns the most recent changes in the order they were applied
func (s *SchemaService) Changes(query dto.ListQuery) dto.SchemaChangesResponse {
	all := s.registry.Changes()

	changes := make([]domain.SchemaChangeRecord, 0, len(all))
	for _, c := range all {
		if query.EventType == "" || c.EventType == query.EventType {
			changes = append(changes, c)
		}
	}
	if limit := listLimit(query); len(changes) > limit {
		changes = changes[len(changes)-limit:]
	}

	return dto.SchemaChangesResponse{Changes: changes, Count: len(changes)}
}

// ValidationStats totals the retained hour windows, so the totals always
// equal the sum of hourly_stats. Envelope rejections count as failures.
func (s *SchemaService) ValidationStats() dto.ValidationStatsResponse {
	resp := dto.ValidationStatsResponse{
		HourlyStats: make([]dto.HourlyValidationStats, 0),
	}

	for _, w := range s.aggregator.Hourly() {
		resp.TotalValidations += w.TotalCount
		resp.FailedValidations += w.ErrorCount
		resp.HourlyStats = append(resp.HourlyStats, dto.HourlyValidationStats{
			Hour:      w.BucketStart,
			Total:     w.TotalCount,
			Failed:    w.ErrorCount,
			ErrorRate: ratio(w.ErrorCount, w.TotalCount),
		})
	}
	resp.ErrorRate = ratio(resp.FailedValidations, resp.TotalValidations)

	return resp
}

// ValidationErrors returns recent validation errors, newest first
func (s *SchemaService) ValidationErrors(query dto.ListQuery) dto.ValidationErrorsResponse {
	limit := listLimit(query)

	errs := make([]domain.ValidationError, 0)
	for _, e := range s.registry.RecentErrors() {
		if len(errs) == limit {
			break
		}
		if query.EventType == "" || e.EventType == query.EventType {
			errs = append(errs, e)
		}
	}

	return dto.ValidationErrorsResponse{Errors: errs, Count: len(errs)}
}

// SchemaType returns the version history of one type
func (s *SchemaService) SchemaType(eventType string) (*dto.SchemaTypeResponse, error) {
	versions, err := s.registry.Versions(eventType)
	if err != nil {
		return nil, err
	}

	resp := &dto.SchemaTypeResponse{EventType: eventType, Versions: versions}
	if active, ok := s.registry.Active(eventType); ok {
		resp.Active = &active
	}
	return resp, nil
}

func (s *SchemaService) Register(eventType string, fields domain.FieldSpec) (domain.SchemaVersion, error) {
	return s.registry.Register(eventType, fields)
}

func (s *SchemaService) Evolve(eventType string, fields domain.FieldSpec) (domain.SchemaVersion, error) {
	return s.registry.Evolve(eventType, fields)
}

func (s *SchemaService) Deactivate(eventType string) (domain.SchemaVersion, error) {
	return s.registry.Deactivate(eventType)
}

func listLimit(query dto.ListQuery) int {
	if query.Limit <= 0 {
		return defaultListLimit
	}
	return query.Limit
}

func ratio(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
