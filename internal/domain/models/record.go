package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Collection names shared by every store backend.
const (
	CollectionTransactions = "transactions"
	CollectionFields       = "fields"
	CollectionFieldStatus  = "field_status"
	CollectionFieldYields  = "field_yields"
	CollectionFieldCosts   = "field_costs"
	CollectionAnimals      = "animals"
	CollectionWarehouse    = "warehouse"
	CollectionTasks        = "tasks"
	CollectionEquipment    = "equipment"
)

// Collections lists every collection read during a fetch cycle.
var Collections = []string{
	CollectionTransactions,
	CollectionFields,
	CollectionFieldStatus,
	CollectionFieldYields,
	CollectionFieldCosts,
	CollectionAnimals,
	CollectionWarehouse,
	CollectionTasks,
	CollectionEquipment,
}

// IsCollection reports whether name is one of the known collections.
func IsCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}

var orderFields = map[string]string{
	CollectionTransactions: "date",
	CollectionFieldYields:  "date",
	CollectionFieldStatus:  "date",
	CollectionFieldCosts:   "date",
	CollectionTasks:        "dueDate",
}

// OrderField is the field a collection is sorted by, newest first. Empty
// means store order.
func OrderField(collection string) string {
	return orderFields[collection]
}

// Record is a loosely typed document returned by the backing store.
type Record map[string]any

// ID returns the record identifier, checking "id" and then "_id".
func (r Record) ID() string {
	if v := r.String("id"); v != "" {
		return v
	}
	return r.String("_id")
}

// String returns the trimmed string form of key, or "" when missing.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Float coerces key to a non-negative number. Missing, non-numeric and
// negative values yield 0.
func (r Record) Float(key string) float64 {
	f, ok := ToFloat(r[key])
	if !ok || f < 0 {
		return 0
	}
	return f
}

// Time returns the canonical date stored under key after normalization.
func (r Record) Time(key string) (time.Time, bool) {
	switch t := r[key].(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	default:
		return time.Time{}, false
	}
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ToFloat converts numeric Go values, json.Number and numeric strings.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if !strings.Contains(s, ".") {
			// decimal comma, e.g. "12,5"
			s = strings.Replace(s, ",", ".", 1)
		}
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
