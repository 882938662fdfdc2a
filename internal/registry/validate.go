package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

// ObservedSpec derives a schema from a payload. Every non-null field becomes required
// with its observed kind; null fields are optional and accept any kind.
func ObservedSpec(payload map[string]any) domain.FieldSpec {
	spec := make(domain.FieldSpec, len(payload))
	for name, value := range payload {
		kind, ok := domain.KindOf(value)
		if !ok {
			spec[name] = domain.FieldRule{Required: false, Kind: domain.KindAny}
			continue
		}
		spec[name] = domain.FieldRule{Required: true, Kind: kind}
	}
	return spec
}

// Check validates a payload against spec. Fields absent from spec are tolerated.
// Problems are reported in field name order so the outcome is deterministic.
func Check(spec domain.FieldSpec, payload map[string]any) error {
	names := make([]string, 0, len(spec))
	for name := range spec {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []string
	for _, name := range names {
		rule := spec[name]
		value, present := payload[name]

		kind, hasValue := domain.KindOf(value)
		if !present || !hasValue {
			if rule.Required {
				problems = append(problems, fmt.Sprintf("missing required field %q", name))
			}
			continue
		}

		if rule.Kind != domain.KindAny && kind != rule.Kind {
			problems = append(problems, fmt.Sprintf("field %q expected %s, got %s", name, rule.Kind, kind))
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
