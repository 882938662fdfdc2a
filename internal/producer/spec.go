package producer

import (
	"reflect"
	"strings"
	"time"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

var timeType = reflect.TypeOf(time.Time{})

// FieldSpecOf derives the field spec of a payload variant from its json tags.
// Fields tagged omitempty and pointer or interface fields are optional.
func FieldSpecOf(p Payload) domain.FieldSpec {
	t := reflect.TypeOf(p)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	spec := make(domain.FieldSpec)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}

		ft := f.Type
		optional := strings.Contains(opts, "omitempty")
		if ft.Kind() == reflect.Pointer {
			optional = true
			ft = ft.Elem()
		}
		kind := kindOf(ft)
		if kind == domain.KindAny {
			optional = true
		}

		spec[name] = domain.FieldRule{Required: !optional, Kind: kind}
	}
	return spec
}

func kindOf(t reflect.Type) domain.FieldKind {
	if t == timeType {
		return domain.KindString
	}

	switch t.Kind() {
	case reflect.String:
		return domain.KindString
	case reflect.Bool:
		return domain.KindBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return domain.KindNumber
	case reflect.Struct, reflect.Map:
		return domain.KindObject
	case reflect.Slice, reflect.Array:
		return domain.KindArray
	default:
		return domain.KindAny
	}
}

// CatalogSpecs returns the field spec of every catalog variant keyed by event type
func CatalogSpecs() map[string]domain.FieldSpec {
	specs := make(map[string]domain.FieldSpec)
	for _, p := range Catalog() {
		specs[p.EventType()] = FieldSpecOf(p)
	}
	return specs
}
