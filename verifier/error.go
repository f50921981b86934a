// Package verifier implements NoLang's 8-pass static verifier: Limits,
// Structural, Exhaustion, Hashing, Types, Contracts, Stack-balance, and
// Reachability. Every pass collects errors rather than stopping at the
// first one; only a fatal structural error (a nested, unterminated or
// unmatched FUNC/ENDFUNC whose shape the later passes cannot reason about)
// skips passes 3-8.
package verifier

import "fmt"

// VerifyError is the common type returned by every verifier pass. Each
// Kind populates only the fields its message uses; the rest stay zero.
type VerifyError struct {
	Kind VerifyErrorKind

	At       int
	ExpectedTag uint16
	FoundTag    uint16
	Expected    int
	Found       int
	Index       int
	BindingDepth int
	Tag         uint16
	Expected6   [6]byte
	Computed6   [6]byte
	FuncAt      int
	AtHalt      int
	Depth       int
	Size        int
	Limit       uint16
}

type VerifyErrorKind int

const (
	MissingHalt VerifyErrorKind = iota
	UnmatchedFunc
	UnmatchedMatch
	NestedFunc
	CaseOrderViolation
	NonZeroUnusedField
	TypeMismatch
	UnresolvableRef
	NonExhaustiveMatch
	DuplicateCase
	HashMismatch
	MissingHash
	PreConditionNotBool
	PostConditionNotBool
	UnreachableInstruction
	StackUnderflow
	UnbalancedStack
	ProgramTooLarge
	RefTooDeep
	RecursionLimitTooHigh
	ParamCountMismatch
)

func (e *VerifyError) Error() string {
	switch e.Kind {
	case MissingHalt:
		return "program does not end with HALT"
	case UnmatchedFunc:
		return fmt.Sprintf("unmatched FUNC at instruction %d", e.At)
	case UnmatchedMatch:
		return fmt.Sprintf("unmatched MATCH at instruction %d", e.At)
	case NestedFunc:
		return fmt.Sprintf("nested FUNC at instruction %d", e.At)
	case CaseOrderViolation:
		return fmt.Sprintf("CASE order violation at instruction %d: expected tag %d, found %d", e.At, e.ExpectedTag, e.FoundTag)
	case NonZeroUnusedField:
		return fmt.Sprintf("non-zero unused field at instruction %d", e.At)
	case TypeMismatch:
		return fmt.Sprintf("type mismatch at instruction %d: expected %d, found %d", e.At, e.Expected, e.Found)
	case UnresolvableRef:
		return fmt.Sprintf("unresolvable REF at instruction %d: index %d, binding depth %d", e.At, e.Index, e.BindingDepth)
	case NonExhaustiveMatch:
		return fmt.Sprintf("non-exhaustive match at instruction %d: expected %d cases, found %d", e.At, e.Expected, e.Found)
	case DuplicateCase:
		return fmt.Sprintf("duplicate CASE tag %d at instruction %d", e.Tag, e.At)
	case HashMismatch:
		return fmt.Sprintf("hash mismatch at instruction %d: expected %02x, computed %02x", e.At, e.Expected6, e.Computed6)
	case MissingHash:
		return fmt.Sprintf("missing HASH in FUNC at instruction %d", e.FuncAt)
	case PreConditionNotBool:
		return fmt.Sprintf("PRE condition does not produce BOOL at instruction %d", e.At)
	case PostConditionNotBool:
		return fmt.Sprintf("POST condition does not produce BOOL at instruction %d", e.At)
	case UnreachableInstruction:
		return fmt.Sprintf("unreachable instruction at %d", e.At)
	case StackUnderflow:
		return fmt.Sprintf("stack underflow at instruction %d", e.At)
	case UnbalancedStack:
		return fmt.Sprintf("unbalanced stack at HALT (instruction %d): depth %d, expected 1", e.AtHalt, e.Depth)
	case ProgramTooLarge:
		return fmt.Sprintf("program too large: %d instructions (max 65536)", e.Size)
	case RefTooDeep:
		return fmt.Sprintf("REF index %d too deep at instruction %d", e.Index, e.At)
	case RecursionLimitTooHigh:
		return fmt.Sprintf("recursion limit %d too high at instruction %d", e.Limit, e.At)
	case ParamCountMismatch:
		return fmt.Sprintf("PARAM count mismatch in FUNC at %d: expected %d, found %d", e.At, e.Expected, e.Found)
	default:
		return "unknown verify error"
	}
}
