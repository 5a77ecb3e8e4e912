// Package compact turns heterogeneous upstream records into the fixed wire
// shape the widget renders. Each output type is described by a Schema table;
// adding a field means adding one table entry.
package compact

import "mirror/webuntis/internal/untis"

// Item is one compacted record.
type Item = map[string]any

// Transform maps a raw field value to its wire value. Returning nil makes the
// field fall back to its default.
type Transform func(any) any

// Field describes how one output field is read from a raw record.
type Field struct {
	From      string
	Fallbacks []string
	Transform Transform
	Default   any
}

// Schema maps output field names to their definitions.
type Schema map[string]Field

// Compact applies schema to every raw record. The result is never nil.
func Compact(raw []untis.RawItem, schema Schema) []Item {
	out := make([]Item, 0, len(raw))
	for _, item := range raw {
		if item == nil {
			continue
		}
		out = append(out, CompactOne(item, schema))
	}
	return out
}

// CompactOne applies schema to a single raw record.
func CompactOne(raw untis.RawItem, schema Schema) Item {
	out := make(Item, len(schema))
	for name, field := range schema {
		out[name] = field.resolve(raw)
	}
	return out
}

func (f Field) resolve(raw untis.RawItem) any {
	value, ok := lookup(raw, f.From)
	for i := 0; !ok && i < len(f.Fallbacks); i++ {
		value, ok = lookup(raw, f.Fallbacks[i])
	}
	if !ok {
		return f.Default
	}
	if f.Transform != nil {
		value = f.Transform(value)
	}
	if value == nil {
		return f.Default
	}
	return value
}

func lookup(raw untis.RawItem, key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}
