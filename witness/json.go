package witness

import (
	"encoding/json"
	"fmt"
	"math"

	"nolangvm/nolang"
)

// rawCase mirrors one element of a witness file's JSON array. Expected is
// decoded as json.RawMessage so type-escape objects ({"U64": 42}) can be
// told apart from plain values before conversion. Numbers, plain or
// escaped, are still decoded through float64 when converted.
type rawCase struct {
	Input    []json.RawMessage `json:"input"`
	Expected json.RawMessage   `json:"expected"`
}

// Case is a single witness test: concrete inputs to a function, and the
// value the call is expected to return.
type Case struct {
	Inputs   []nolang.Value
	Expected nolang.Value
}

// ParseFile parses a witness JSON document. The root must be an array of
// {"input": [...], "expected": ...} objects. Input elements are typed
// against paramTypes positionally; the expected value is inferred
// (integer -> I64, float -> F64, bool -> Bool, null -> Unit) unless it
// is one of the type-escape objects {"U64": n}, {"Char": n}, {"F64": n},
// {"Bool": b} that disambiguate values plain JSON can't express.
func ParseFile(data []byte, paramTypes []nolang.TypeTag) ([]Case, error) {
	var raw []rawCase
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Kind: InvalidFormat, Message: err.Error()}
	}

	cases := make([]Case, 0, len(raw))
	for _, rc := range raw {
		if rc.Input == nil {
			return nil, &Error{Kind: InvalidFormat, Message: "missing 'input' field"}
		}
		if rc.Expected == nil {
			return nil, &Error{Kind: InvalidFormat, Message: "missing 'expected' field"}
		}
		if len(rc.Input) != len(paramTypes) {
			return nil, &Error{Kind: InputCountMismatch, ExpectedCount: len(paramTypes), GotCount: len(rc.Input)}
		}

		inputs := make([]nolang.Value, len(rc.Input))
		for i, raw := range rc.Input {
			v, err := convertTyped(raw, paramTypes[i], i)
			if err != nil {
				return nil, err
			}
			inputs[i] = v
		}

		expected, err := convertInferred(rc.Expected)
		if err != nil {
			return nil, err
		}

		cases = append(cases, Case{Inputs: inputs, Expected: expected})
	}

	return cases, nil
}

// jsonNumber decodes raw as a float64, rejecting anything that isn't a
// JSON number.
func jsonNumber(raw json.RawMessage) (float64, bool) {
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

func convertTyped(raw json.RawMessage, tag nolang.TypeTag, index int) (nolang.Value, error) {
	mismatch := func() error {
		return &Error{Kind: InputTypeMismatch, Index: index, ExpectedType: tag}
	}

	switch tag {
	case nolang.I64:
		n, ok := jsonNumber(raw)
		if !ok || !isWholeFinite(n) {
			return nolang.Value{}, mismatch()
		}
		return nolang.NewI64(int64(n)), nil

	case nolang.U64:
		n, ok := jsonNumber(raw)
		if !ok || !isWholeFinite(n) || n < 0 {
			return nolang.Value{}, mismatch()
		}
		return nolang.NewU64(uint64(n)), nil

	case nolang.F64:
		n, ok := jsonNumber(raw)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			return nolang.Value{}, mismatch()
		}
		return nolang.NewF64(n), nil

	case nolang.Bool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nolang.Value{}, mismatch()
		}
		return nolang.NewBool(b), nil

	case nolang.Char:
		n, ok := jsonNumber(raw)
		if !ok || !isWholeFinite(n) || n < 0 {
			return nolang.Value{}, mismatch()
		}
		r, ok := validRune(uint32(n))
		if !ok {
			return nolang.Value{}, mismatch()
		}
		return nolang.NewChar(r), nil

	case nolang.Unit:
		if string(raw) != "null" {
			return nolang.Value{}, mismatch()
		}
		return nolang.NewUnit(), nil

	default:
		return nolang.Value{}, mismatch()
	}
}

func convertInferred(raw json.RawMessage) (nolang.Value, error) {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nolang.Value{}, &Error{Kind: InvalidFormat, Message: err.Error()}
	}

	switch v := probe.(type) {
	case nil:
		return nolang.NewUnit(), nil
	case bool:
		return nolang.NewBool(v), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nolang.Value{}, &Error{Kind: InvalidFormat, Message: "expected value cannot be NaN or infinity"}
		}
		if isWholeFinite(v) {
			return nolang.NewI64(int64(v)), nil
		}
		return nolang.NewF64(v), nil
	case map[string]any:
		return convertEscape(v)
	default:
		return nolang.Value{}, &Error{Kind: InvalidFormat, Message: "expected value must be null, bool, number, or type escape object"}
	}
}

// convertEscape handles the single-key objects {"U64": n}, {"Char": n},
// {"F64": n}, {"Bool": b} that pick an otherwise-ambiguous type for an
// expected value.
func convertEscape(obj map[string]any) (nolang.Value, error) {
	if len(obj) != 1 {
		return nolang.Value{}, &Error{Kind: InvalidFormat, Message: "expected value cannot be a complex object"}
	}

	var key string
	var val any
	for k, v := range obj {
		key, val = k, v
	}

	switch key {
	case "U64":
		n, ok := val.(float64)
		if !ok || !isWholeFinite(n) || n < 0 {
			return nolang.Value{}, &Error{Kind: InvalidFormat, Message: "U64 value must be a non-negative integer"}
		}
		return nolang.NewU64(uint64(n)), nil

	case "Char":
		n, ok := val.(float64)
		if !ok || !isWholeFinite(n) || n < 0 {
			return nolang.Value{}, &Error{Kind: InvalidFormat, Message: "Char value must be a non-negative integer"}
		}
		r, ok := validRune(uint32(n))
		if !ok {
			return nolang.Value{}, &Error{Kind: InvalidFormat, Message: "invalid Unicode codepoint"}
		}
		return nolang.NewChar(r), nil

	case "F64":
		n, ok := val.(float64)
		if !ok {
			return nolang.Value{}, &Error{Kind: InvalidFormat, Message: "F64 value must be a number"}
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nolang.Value{}, &Error{Kind: InvalidFormat, Message: "F64 value cannot be NaN or infinity"}
		}
		return nolang.NewF64(n), nil

	case "Bool":
		b, ok := val.(bool)
		if !ok {
			return nolang.Value{}, &Error{Kind: InvalidFormat, Message: "Bool value must be a boolean"}
		}
		return nolang.NewBool(b), nil

	default:
		return nolang.Value{}, &Error{Kind: InvalidFormat, Message: fmt.Sprintf("unknown type escape: %s", key)}
	}
}

func isWholeFinite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0) && n == math.Trunc(n)
}

func validRune(cp uint32) (rune, bool) {
	if cp > 0x10FFFF {
		return 0, false
	}
	if cp >= 0xD800 && cp <= 0xDFFF {
		return 0, false
	}
	return rune(cp), true
}
