package dat

import "github.com/nao1215/desyncdiff/internal/model"

// ToGenericValue simplifies a decoded record for diffing and JSON
// output: wrapper records of exactly {type, data} produced by the
// serialized-value schemas are unwrapped to their inner data when the
// type tag marks a plain value (0x02 double, 0x03/0x04 string variants,
// 0x05 mapping). Everything else is rebuilt recursively with structure
// and ordering intact.
//
// The boolean wrapper (type 0x01) is deliberately not unwrapped: its
// payload lives in a nested field rather than directly in data, so
// unwrapping would change its meaning.
func ToGenericValue(v *model.Value) *model.Value {
	switch v.Kind() {
	case model.KindMap:
		if inner, ok := unwrap(v); ok {
			return ToGenericValue(inner)
		}
		out := model.NewMap()
		for _, k := range v.Keys() {
			field, _ := v.Get(k)
			out.Set(k, ToGenericValue(field))
		}
		return out
	case model.KindList:
		out := model.NewList()
		for i := 0; i < v.Len(); i++ {
			out.Append(ToGenericValue(v.Index(i)))
		}
		return out
	default:
		return v
	}
}

func unwrap(v *model.Value) (*model.Value, bool) {
	if v.Len() != 2 || !v.Has("type") || !v.Has("data") {
		return nil, false
	}
	typ, _ := v.Get("type")
	if typ.Kind() != model.KindNumber {
		return nil, false
	}
	switch typ.AsNumber() {
	case 0x02, 0x03, 0x04, 0x05:
		data, _ := v.Get("data")
		return data, true
	default:
		return nil, false
	}
}
