package analytics

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

// DefaultDateFields lists the keys normalized on every record.
var DefaultDateFields = NewDateFields(
	"date", "createdAt", "updatedAt", "dueDate", "completedAt",
	"purchaseDate", "lastService", "nextService", "birthDate",
	"plantingDate", "harvestDate",
)

// DateFields is the set of keys treated as dates.
type DateFields map[string]struct{}

// NewDateFields builds a DateFields set.
func NewDateFields(keys ...string) DateFields {
	set := make(DateFields, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// DateKind tags the representation a raw date value arrived in.
type DateKind int

const (
	DateUnparseable DateKind = iota
	DateCanonical
	DateConvertible
	DateEpochSeconds
	DateEpochMillis
	DateString
)

func (k DateKind) String() string {
	switch k {
	case DateCanonical:
		return "canonical"
	case DateConvertible:
		return "convertible"
	case DateEpochSeconds:
		return "epoch_seconds"
	case DateEpochMillis:
		return "epoch_millis"
	case DateString:
		return "string"
	default:
		return "unparseable"
	}
}

// timeConverter is any wrapper exposing a zero-argument conversion, such as
// primitive.DateTime from the mongo driver.
type timeConverter interface {
	Time() time.Time
}

// DateValue is a raw date value tagged with its representation.
type DateValue struct {
	Kind DateKind

	canonical time.Time
	convert   timeConverter
	seconds   int64
	millis    float64
	text      string
}

var stringLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ClassifyDate tags v. The checks run in a fixed order: conversion method,
// integral seconds property, canonical value, then string or number parsing.
func ClassifyDate(v any) DateValue {
	if conv, ok := v.(timeConverter); ok {
		return DateValue{Kind: DateConvertible, convert: conv}
	}
	if secs, ok := secondsProperty(v); ok {
		return DateValue{Kind: DateEpochSeconds, seconds: secs}
	}
	switch t := v.(type) {
	case time.Time:
		return DateValue{Kind: DateCanonical, canonical: t}
	case *time.Time:
		if t != nil {
			return DateValue{Kind: DateCanonical, canonical: *t}
		}
	case string:
		return DateValue{Kind: DateString, text: strings.TrimSpace(t)}
	case json.Number, float64, float32, int, int32, int64, uint32, uint64:
		if ms, ok := models.ToFloat(t); ok {
			return DateValue{Kind: DateEpochMillis, millis: ms}
		}
	}
	return DateValue{Kind: DateUnparseable}
}

// Resolve converts the tagged value into a canonical time. The boolean is
// false for unparseable input and for results that fail the validity check.
func (d DateValue) Resolve() (time.Time, bool) {
	var t time.Time
	switch d.Kind {
	case DateCanonical:
		t = d.canonical
	case DateConvertible:
		t = resolveConvertible(d.convert)
	case DateEpochSeconds:
		t = time.UnixMilli(d.seconds * 1000).UTC()
	case DateEpochMillis:
		t = time.UnixMilli(int64(d.millis)).UTC()
	case DateString:
		t = parseDateString(d.text)
	default:
		return time.Time{}, false
	}
	if t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeDate classifies and resolves a single raw value.
func NormalizeDate(v any) (time.Time, bool) {
	return ClassifyDate(v).Resolve()
}

// Normalize returns a copy of record whose date fields hold time.Time values,
// or nil when a value could not be parsed. Other keys pass through untouched.
func Normalize(record models.Record, dateFields DateFields) models.Record {
	out := record.Clone()
	for key := range dateFields {
		raw, ok := out[key]
		if !ok {
			continue
		}
		if t, valid := NormalizeDate(raw); valid {
			out[key] = t
		} else {
			out[key] = nil
		}
	}
	return out
}

// NormalizeAll applies Normalize to every record.
func NormalizeAll(records []models.Record, dateFields DateFields) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		out = append(out, Normalize(r, dateFields))
	}
	return out
}

func resolveConvertible(conv timeConverter) (t time.Time) {
	defer func() {
		if recover() != nil {
			t = time.Time{}
		}
	}()
	return conv.Time()
}

func secondsProperty(v any) (int64, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return 0, false
	}
	raw, ok := m["seconds"]
	if !ok {
		return 0, false
	}
	switch s := raw.(type) {
	case int:
		return int64(s), true
	case int32:
		return int64(s), true
	case int64:
		return s, true
	case uint32:
		return int64(s), true
	case float64:
		if s == math.Trunc(s) && !math.IsInf(s, 0) {
			return int64(s), true
		}
	case json.Number:
		if n, err := s.Int64(); err == nil {
			return n, true
		}
	}
	return 0, false
}

func parseDateString(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range stringLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
