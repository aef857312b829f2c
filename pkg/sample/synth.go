package sample

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// MaxDepth bounds message recursion. Beyond this depth, nested messages are
// emitted as {} rather than expanded further, guaranteeing termination on
// cyclic schemas in O(nodes * MaxDepth) time.
const MaxDepth = 4

// placeholderBytes is the literal placeholder used for bytes fields.
const placeholderBytes = "base64_encoded_bytes"

// Synthesize produces a default JSON object for a message descriptor,
// mapping every field's json_name (for a oneof group, only its first
// field) to a default value per its kind:
// numeric -> 0, bool -> false, string -> "", bytes -> the literal
// placeholder, enum -> first declared value's name, message -> a
// recursive sample, list -> [], map -> {}.
func Synthesize(md protoreflect.MessageDescriptor) map[string]interface{} {
	return synthesizeAtDepth(md, 0)
}

// JSON renders Synthesize's output as pretty-printed JSON, the shape the
// "sample-for" operation returns to the host.
func JSON(md protoreflect.MessageDescriptor) (string, error) {
	out, err := json.MarshalIndent(Synthesize(md), "", "  ")
	if err != nil {
		return "", fmt.Errorf("sample: marshal: %w", err)
	}
	return string(out), nil
}

func synthesizeAtDepth(md protoreflect.MessageDescriptor, depth int) map[string]interface{} {
	fields := md.Fields()
	obj := make(map[string]interface{}, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		f := fields.Get(i)
		if od := f.ContainingOneof(); od != nil && !od.IsSynthetic() && od.Fields().Get(0) != f {
			continue
		}
		obj[f.JSONName()] = valueForField(f, depth)
	}
	return obj
}

func valueForField(f protoreflect.FieldDescriptor, depth int) interface{} {
	switch {
	case f.IsMap():
		return map[string]interface{}{}
	case f.IsList():
		return []interface{}{}
	default:
		return scalarValue(f, depth)
	}
}

func scalarValue(f protoreflect.FieldDescriptor, depth int) interface{} {
	switch f.Kind() {
	case protoreflect.BoolKind:
		return false
	case protoreflect.StringKind:
		return ""
	case protoreflect.BytesKind:
		return placeholderBytes
	case protoreflect.EnumKind:
		return enumDefault(f.Enum())
	case protoreflect.MessageKind, protoreflect.GroupKind:
		if depth >= MaxDepth {
			return map[string]interface{}{}
		}
		return synthesizeAtDepth(f.Message(), depth+1)
	default:
		// All remaining kinds are numeric (int32/64, uint32/64, sint32/64,
		// fixed32/64, sfixed32/64, float, double).
		return 0
	}
}

// enumDefault picks the first declared value's name, resolving aliases to
// the canonical (first-declared) entry for a given number since Values()
// preserves declaration order regardless of aliasing.
func enumDefault(ed protoreflect.EnumDescriptor) interface{} {
	values := ed.Values()
	if values.Len() == 0 {
		return 0
	}
	return string(values.Get(0).Name())
}
