package store

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Backends hand values back in their native shapes: Firestore returns
// time.Time and []interface{}, JSON backends return strings and float64.
// The accessors below normalise both.

// String returns the string at key, or "" when absent or null.
func (f Fields) String(key string) string {
	if s, ok := f[key].(string); ok {
		return s
	}
	return ""
}

// StringPtr returns nil when the key is absent or null.
func (f Fields) StringPtr(key string) *string {
	s, ok := f[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// Bool returns false when absent.
func (f Fields) Bool(key string) bool {
	b, _ := f[key].(bool)
	return b
}

// Strings returns an empty, non-nil slice when absent.
func (f Fields) Strings(key string) []string {
	switch v := f[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// Time returns nil when the key is absent or null.
func (f Fields) Time(key string) (*time.Time, error) {
	switch v := f[key].(type) {
	case nil:
		return nil, nil
	case time.Time:
		t := v.UTC()
		return &t, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		t := v.UTC()
		return &t, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("field %s: invalid timestamp %q: %w", key, v, err)
		}
		t = t.UTC()
		return &t, nil
	default:
		return nil, fmt.Errorf("field %s: unexpected timestamp type %T", key, v)
	}
}

// Decimal reads an amount stored as a string. Numbers written by other
// clients are accepted too. Absent or null yields an invalid NullDecimal.
func (f Fields) Decimal(key string) (decimal.NullDecimal, error) {
	switch v := f[key].(type) {
	case nil:
		return decimal.NullDecimal{}, nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.NullDecimal{}, fmt.Errorf("field %s: invalid decimal %q: %w", key, v, err)
		}
		return decimal.NewNullDecimal(d), nil
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(v)), nil
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(v)), nil
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(v))), nil
	default:
		return decimal.NullDecimal{}, fmt.Errorf("field %s: unexpected decimal type %T", key, v)
	}
}

// Date reads a calendar date stored as YYYY-MM-DD.
func (f Fields) Date(key string) (civil.Date, error) {
	switch v := f[key].(type) {
	case string:
		d, err := civil.ParseDate(v)
		if err != nil {
			return civil.Date{}, fmt.Errorf("field %s: invalid date %q: %w", key, v, err)
		}
		return d, nil
	case time.Time:
		return civil.DateOf(v), nil
	case nil:
		return civil.Date{}, fmt.Errorf("field %s: missing date", key)
	default:
		return civil.Date{}, fmt.Errorf("field %s: unexpected date type %T", key, v)
	}
}

// DecimalValue is the stored form of an amount.
func DecimalValue(d decimal.Decimal) string {
	return d.String()
}

// NullDecimalValue is the stored form of an optional amount; invalid becomes null.
func NullDecimalValue(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

// DateValue is the stored form of a calendar date.
func DateValue(d civil.Date) string {
	return d.String()
}

// StringPtrValue stores nil pointers as null.
func StringPtrValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// TimePtrValue stores nil pointers as null.
func TimePtrValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// Clone returns a shallow copy with string slices copied, so callers can
// mutate the result without touching the stored document.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		if ss, ok := v.([]string); ok {
			cp := make([]string, len(ss))
			copy(cp, ss)
			v = cp
		}
		out[k] = v
	}
	return out
}
