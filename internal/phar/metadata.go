// SPDX-License-Identifier: MPL-2.0

package phar

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/elliotchance/phpserialize"
)

// MarshalMetadata serializes v the way PHP's serialize() does. Whole float64
// values, as produced by JSON decoding, are stored as integers.
func MarshalMetadata(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return phpserialize.Marshal(normalizeMetadata(v), nil)
}

// UnmarshalMetadata decodes serialized PHP metadata. Arrays decode to
// map[any]any; unknown encodings (such as objects) are returned as the raw string.
func UnmarshalMetadata(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case 'a':
		return phpserialize.UnmarshalAssociativeArray(data)
	case 's':
		var s string
		err := phpserialize.Unmarshal(data, &s)
		return s, err
	case 'i':
		var i int64
		err := phpserialize.Unmarshal(data, &i)
		return i, err
	case 'd':
		var f float64
		err := phpserialize.Unmarshal(data, &f)
		return f, err
	case 'b':
		var b bool
		err := phpserialize.Unmarshal(data, &b)
		return b, err
	case 'N':
		return nil, nil
	default:
		return string(data), nil
	}
}

func normalizeMetadata(v any) any {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeMetadata(item)
		}
		return out
	case map[string]any:
		out := make(map[any]any, len(t))
		for k, item := range t {
			out[k] = normalizeMetadata(item)
		}
		return out
	case map[any]any:
		out := make(map[any]any, len(t))
		for k, item := range t {
			out[k] = normalizeMetadata(item)
		}
		return out
	case int:
		return int64(t)
	default:
		return v
	}
}

// FormatMetadata renders decoded metadata like PHP's var_export().
func FormatMetadata(v any) string {
	var b strings.Builder
	exportValue(&b, v, 0)
	return b.String()
}

func exportValue(b *strings.Builder, v any, depth int) {
	switch t := v.(type) {
	case nil:
		b.WriteString("NULL")
	case bool:
		b.WriteString(strconv.FormatBool(t))
	case string:
		b.WriteString(exportString(t))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
	case []any:
		m := make(map[any]any, len(t))
		for i, item := range t {
			m[int64(i)] = item
		}
		exportArray(b, m, depth)
	case map[any]any:
		exportArray(b, t, depth)
	default:
		fmt.Fprintf(b, "%v", normalizeMetadata(v))
	}
}

func exportArray(b *strings.Builder, m map[any]any, depth int) {
	keys := make([]any, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y any) int {
		xi, xInt := x.(int64)
		yi, yInt := y.(int64)
		switch {
		case xInt && yInt:
			return cmp.Compare(xi, yi)
		case xInt:
			return -1
		case yInt:
			return 1
		default:
			return cmp.Compare(fmt.Sprint(x), fmt.Sprint(y))
		}
	})

	indent := strings.Repeat("  ", depth)
	b.WriteString("array (\n")
	for _, k := range keys {
		b.WriteString(indent + "  ")
		exportValue(b, k, depth+1)
		b.WriteString(" => ")
		switch m[k].(type) {
		case map[any]any, []any:
			b.WriteString("\n" + indent + "  ")
		}
		exportValue(b, m[k], depth+1)
		b.WriteString(",\n")
	}
	b.WriteString(indent + ")")
}

func exportString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
