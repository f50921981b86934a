package witness

import (
	"fmt"

	"nolangvm/nolang"
)

// Error is returned by every stage of witness parsing and execution.
type Error struct {
	Kind ErrorKind

	Index         int
	FunctionCount int
	ExpectedCount int
	GotCount      int
	ExpectedType  nolang.TypeTag

	Message string
}

type ErrorKind int

const (
	NoFunctions ErrorKind = iota
	FunctionNotFound
	InputCountMismatch
	InputTypeMismatch
	UnencodableValue
	InvalidFormat
)

func (e *Error) Error() string {
	switch e.Kind {
	case NoFunctions:
		return "no functions in program"
	case FunctionNotFound:
		return fmt.Sprintf("function %d not found (program has %d functions)", e.Index, e.FunctionCount)
	case InputCountMismatch:
		return fmt.Sprintf("wrong number of inputs: expected %d, got %d", e.ExpectedCount, e.GotCount)
	case InputTypeMismatch:
		return fmt.Sprintf("input %d: expected %s, got incompatible JSON value", e.Index, e.ExpectedType.Name())
	case UnencodableValue:
		return fmt.Sprintf("cannot encode %s as CONST instructions", e.Message)
	case InvalidFormat:
		return fmt.Sprintf("invalid witness format: %s", e.Message)
	default:
		return "unknown witness error"
	}
}
