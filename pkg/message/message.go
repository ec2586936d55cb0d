package message

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultField is the field read when no field is configured.
const DefaultField = "payload"

// Errors returned by path operations.
var (
	ErrEmptyPath   = errors.New("empty field path")
	ErrInvalidPath = errors.New("invalid field path")
)

// Message is a single message passed between nodes.
type Message map[string]any

// Copy returns a shallow copy of the message. Nested values are shared.
func (m Message) Copy() Message {
	if m == nil {
		return Message{}
	}
	out := make(Message, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// With returns a shallow copy of the message with key set to value.
func (m Message) With(key string, value any) Message {
	out := m.Copy()
	out[key] = value
	return out
}

// segment is one step of a parsed field path: either a map key or a slice index.
type segment struct {
	key   string
	index int
	isIdx bool
}

// parsePath splits a field path into segments.
func parsePath(path string) ([]segment, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrEmptyPath
	}

	var segs []segment
	i := 0
	for i < len(path) {
		switch path[i] {
		case '.':
			if i == 0 || i == len(path)-1 || path[i+1] == '.' || path[i+1] == '[' {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
			}
			i++
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed bracket in %q", ErrInvalidPath, path)
			}
			inner := path[i+1 : i+end]
			seg, err := parseBracket(inner)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", err, path)
			}
			segs = append(segs, seg)
			i += end + 1
		default:
			j := i
			for j < len(path) && path[j] != '.' && path[j] != '[' {
				j++
			}
			segs = append(segs, segment{key: path[i:j]})
			i = j
		}
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return segs, nil
}

func parseBracket(inner string) (segment, error) {
	if len(inner) >= 2 {
		q := inner[0]
		if (q == '"' || q == '\'') && inner[len(inner)-1] == q {
			return segment{key: inner[1 : len(inner)-1]}, nil
		}
	}
	n, err := strconv.Atoi(inner)
	if err != nil || n < 0 {
		return segment{}, ErrInvalidPath
	}
	return segment{index: n, isIdx: true}, nil
}

// ValidatePath checks that path is a well-formed field path.
func ValidatePath(path string) error {
	_, err := parsePath(path)
	return err
}

// Get reads the value at path. The second result is false when any step of
// the path is missing or the path is malformed.
func Get(m Message, path string) (any, bool) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, false
	}

	var cur any = map[string]any(m)
	for _, seg := range segs {
		if seg.isIdx {
			arr, ok := cur.([]any)
			if !ok || seg.index >= len(arr) {
				return nil, false
			}
			cur = arr[seg.index]
			continue
		}
		obj, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg.key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set writes value at path, creating intermediate objects as needed.
// Slice indices must already exist.
func Set(m Message, path string, value any) error {
	segs, err := parsePath(path)
	if err != nil {
		return err
	}

	var cur any = map[string]any(m)
	for i, seg := range segs {
		last := i == len(segs)-1
		if seg.isIdx {
			arr, ok := cur.([]any)
			if !ok || seg.index >= len(arr) {
				return fmt.Errorf("%w: index %d out of range", ErrInvalidPath, seg.index)
			}
			if last {
				arr[seg.index] = value
				return nil
			}
			cur = arr[seg.index]
			continue
		}
		obj, ok := asMap(cur)
		if !ok {
			return fmt.Errorf("%w: %q is not an object", ErrInvalidPath, seg.key)
		}
		if last {
			obj[seg.key] = value
			return nil
		}
		next, ok := obj[seg.key]
		if !ok || next == nil {
			if segs[i+1].isIdx {
				return fmt.Errorf("%w: %q does not exist", ErrInvalidPath, seg.key)
			}
			next = map[string]any{}
			obj[seg.key] = next
		}
		cur = next
	}
	return nil
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Message:
		return t, true
	default:
		return nil, false
	}
}

// Number coerces a field value to a float64. Numeric Go types and strings
// holding a decimal number are accepted. Booleans, nil, empty strings, NaN
// and everything else are not numeric.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case string:
		s := strings.TrimSpace(n)
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
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
