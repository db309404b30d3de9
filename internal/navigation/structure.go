// Package navigation holds the loosely typed, string-keyed control event
// record exchanged between event sources and the translator.
package navigation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Name is the structure name carried by every navigation record.
const Name = "application/x-navigation"

// FieldEvent is the discriminator field present on every control event.
const FieldEvent = "event"

var (
	ErrNoField   = errors.New("no such field")
	ErrWrongType = errors.New("field has wrong type")
)

// Structure is an immutable-by-convention record of named fields. Values are
// float64, int32, int, bool or string.
type Structure struct {
	name   string
	fields map[string]any
}

func New(name string) *Structure {
	return &Structure{name: name, fields: make(map[string]any)}
}

// NewEvent returns a navigation structure with its event discriminator set.
func NewEvent(event string) *Structure {
	return New(Name).Set(FieldEvent, event)
}

func (s *Structure) Name() string { return s.name }

// Set stores value under field and returns s for chaining.
func (s *Structure) Set(field string, value any) *Structure {
	s.fields[field] = value
	return s
}

func (s *Structure) Has(field string) bool {
	_, ok := s.fields[field]
	return ok
}

// Fields returns the field names in sorted order.
func (s *Structure) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for k := range s.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Event returns the event discriminator.
func (s *Structure) Event() (string, error) {
	return s.String(FieldEvent)
}

func (s *Structure) String(field string) (string, error) {
	v, ok := s.fields[field]
	if !ok {
		return "", fieldError(field, ErrNoField)
	}
	str, ok := v.(string)
	if !ok {
		return "", fieldError(field, ErrWrongType)
	}
	return str, nil
}

// Float64 returns a numeric field as float64. Integer values are widened.
func (s *Structure) Float64(field string) (float64, error) {
	v, ok := s.fields[field]
	if !ok {
		return 0, fieldError(field, ErrNoField)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fieldError(field, ErrWrongType)
}

// Int32 returns an integer field. Floating point values are accepted only
// when integral and within the int32 range, which is how JSON numbers
// arrive.
func (s *Structure) Int32(field string) (int32, error) {
	v, ok := s.fields[field]
	if !ok {
		return 0, fieldError(field, ErrNoField)
	}
	switch n := v.(type) {
	case int32:
		return n, nil
	case int:
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return int32(n), nil
		}
	case int64:
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return int32(n), nil
		}
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt32 && n <= math.MaxInt32 {
			return int32(n), nil
		}
	}
	return 0, fieldError(field, ErrWrongType)
}

// GoString renders the structure the way it is logged.
func (s *Structure) GoString() string {
	var b strings.Builder
	b.WriteString(s.name)
	for _, k := range s.Fields() {
		fmt.Fprintf(&b, ", %s=%v", k, s.fields[k])
	}
	return b.String()
}

// Parse decodes a JSON object into a navigation structure. Nested objects
// and arrays are kept as raw JSON strings wrapped in rawJSON so typed getters
// reject them.
func Parse(data []byte) (*Structure, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("control event must be a JSON object, got %s", root.Type)
	}
	s := New(Name)
	root.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.Number:
			s.fields[key.Str] = value.Num
		case gjson.String:
			s.fields[key.Str] = value.Str
		case gjson.True, gjson.False:
			s.fields[key.Str] = value.Bool()
		case gjson.JSON:
			s.fields[key.Str] = rawJSON(value.Raw)
		}
		// null values are treated as absent
		return true
	})
	return s, nil
}

type rawJSON string

// MarshalJSON encodes the fields as a flat JSON object in key order.
func (s *Structure) MarshalJSON() ([]byte, error) {
	out := []byte("{}")
	for _, k := range s.Fields() {
		var err error
		v := s.fields[k]
		if raw, ok := v.(rawJSON); ok {
			out, err = sjson.SetRawBytes(out, escapePath(k), []byte(raw))
		} else {
			out, err = sjson.SetBytes(out, escapePath(k), v)
		}
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", k, err)
		}
	}
	return out, nil
}

var pathEscaper = strings.NewReplacer(`\`, `\\`, ".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)

func escapePath(key string) string {
	return pathEscaper.Replace(key)
}

// FieldError reports which field failed a typed lookup.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("field %q: %v", e.Field, e.Err) }
func (e *FieldError) Unwrap() error { return e.Err }

func fieldError(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}
