// Package vm implements NoLang's stack-based bytecode interpreter: an
// operand stack, a De Bruijn indexed binding stack, a call-frame stack for
// FUNC/CALL/RECURSE/RET, and a case-context stack for MATCH/CASE/EXHAUST
// dispatch.
package vm

import (
	"math"

	"nolangvm/nolang"
	"nolangvm/verifier"
)

const (
	// MaxOperandStack bounds the operand stack the same way the verifier's
	// program-size limit bounds the instruction stream: a generous ceiling
	// that only a runaway program should ever hit.
	MaxOperandStack = 4096

	// MaxCallDepth bounds how deep CALL/RECURSE may nest before the VM
	// gives up rather than growing its call-frame stack without limit.
	MaxCallDepth = verifier.MaxRecursionLimit
)

// condSpan is a PRE/POST condition body's instruction range.
type condSpan struct {
	start  int
	length int
}

// funcEntry is the VM's own, independently derived record of one FUNC
// block — it does not trust a ProgramContext handed to it by a prior
// verification pass. It asks the same structural scanner to find FUNC
// boundaries, but builds its own minimal table of only what execution
// needs: how many arguments to pop, which PRE/POST spans to run them
// against, and where the body starts.
type funcEntry struct {
	funcPC         int
	paramCount     int
	bodyStartPC    int
	preConditions  []condSpan
	postConditions []condSpan
}

// callFrame records enough to undo a CALL/RECURSE on RET: where to resume
// in the caller, how many bindings existed before the call so they can be
// trimmed back off, which function this frame belongs to (RECURSE needs
// to know which function is "self"), and how many times that function has
// recursed along this call chain.
type callFrame struct {
	returnPC       int
	bindingsBase   int
	funcIdx        int
	recursionDepth int
	postConditions []condSpan
}

// caseEntry is one CASE arm of a MATCH, as the VM needs it: the tag it
// dispatches on and its body's instruction range.
type caseEntry struct {
	tag       uint16
	bodyStart int
	bodyEnd   int
}

// matchEntry is the VM's own record of one MATCH block, mirroring
// funcEntry's independence from any externally supplied ProgramContext.
type matchEntry struct {
	variantCount int
	cases        []caseEntry
	exhaustPC    int
}

// caseContext is pushed when a MATCH's CASE body is entered and popped
// once its body finishes, so execution naturally falls through to the
// instruction after EXHAUST instead of into the next CASE arm.
type caseContext struct {
	bodyEndPC      int
	afterExhaustPC int
}

// VM executes a single decoded program to completion.
type VM struct {
	program *nolang.Program
	pc      int

	operandStack []nolang.Value
	bindings     []nolang.Value
	callStack    []callFrame
	caseStack    []caseContext

	functions []funcEntry
	matches   map[int]matchEntry

	halted bool
	err    error
}

// NewVM builds a VM for program. It runs the structural pass itself to
// locate FUNC and MATCH blocks — independently of whatever verification,
// if any, happened before this binary was produced — and refuses to
// construct a VM over a program whose FUNC shape the scanner could not
// resolve (a fatal structural error); a malformed MATCH does not stop
// construction.
func NewVM(program *nolang.Program) (*VM, error) {
	ctx, _ := verifier.CheckStructural(program.Instructions)
	if ctx.Fatal {
		return nil, &RuntimeError{Kind: UnexpectedEndOfProgram}
	}

	functions := make([]funcEntry, 0, len(ctx.Functions))
	for _, fn := range ctx.Functions {
		functions = append(functions, funcEntry{
			funcPC:         fn.FuncPC,
			paramCount:     fn.ParamCount,
			bodyStartPC:    fn.BodyStartPC,
			preConditions:  toCondSpans(fn.PreConditions),
			postConditions: toCondSpans(fn.PostConditions),
		})
	}

	matches := make(map[int]matchEntry, len(ctx.Matches))
	for _, m := range ctx.Matches {
		cases := make([]caseEntry, 0, len(m.Cases))
		for _, c := range m.Cases {
			cases = append(cases, caseEntry{
				tag:       c.Tag,
				bodyStart: c.At + 1,
				bodyEnd:   c.At + 1 + c.Len,
			})
		}
		matches[m.MatchPC] = matchEntry{
			variantCount: m.VariantCount,
			cases:        cases,
			exhaustPC:    m.ExhaustPC,
		}
	}

	return &VM{
		program:   program,
		pc:        ctx.EntryPoint,
		functions: functions,
		matches:   matches,
	}, nil
}

func toCondSpans(blocks []verifier.CondBlock) []condSpan {
	spans := make([]condSpan, 0, len(blocks))
	for _, b := range blocks {
		spans = append(spans, condSpan{start: b.Start, length: b.Len})
	}
	return spans
}

func (vm *VM) push(v nolang.Value) error {
	if len(vm.operandStack) >= MaxOperandStack {
		return &RuntimeError{Kind: StackOverflow, At: vm.pc}
	}
	vm.operandStack = append(vm.operandStack, v)
	return nil
}

func (vm *VM) pop() (nolang.Value, error) {
	if len(vm.operandStack) == 0 {
		return nolang.Value{}, &RuntimeError{Kind: StackUnderflow, At: vm.pc}
	}
	v := vm.operandStack[len(vm.operandStack)-1]
	vm.operandStack = vm.operandStack[:len(vm.operandStack)-1]
	return v, nil
}

// bind appends v as the newest binding. Bindings grow by append rather
// than by prepend, so ref(0) is simply the last element — no shifting
// needed on BIND, DROP, or call-frame unwind.
func (vm *VM) bind(v nolang.Value) {
	vm.bindings = append(vm.bindings, v)
}

func (vm *VM) ref(idx int) (nolang.Value, error) {
	if idx < 0 || idx >= len(vm.bindings) {
		return nolang.Value{}, &RuntimeError{Kind: BindingOutOfRange, At: vm.pc, Index: idx, Depth: len(vm.bindings)}
	}
	return vm.bindings[len(vm.bindings)-1-idx].Clone(), nil
}

func (vm *VM) dropBinding() error {
	if len(vm.bindings) == 0 {
		return &RuntimeError{Kind: BindingOutOfRange, At: vm.pc, Index: 0, Depth: 0}
	}
	vm.bindings = vm.bindings[:len(vm.bindings)-1]
	return nil
}

func (vm *VM) checkFloat(f float64) error {
	if math.IsNaN(f) {
		return &RuntimeError{Kind: FloatNaN, At: vm.pc}
	}
	if math.IsInf(f, 0) {
		return &RuntimeError{Kind: FloatInfinity, At: vm.pc}
	}
	return nil
}

func (vm *VM) findFunc(idx int) (funcEntry, error) {
	if idx < 0 || idx >= len(vm.functions) {
		return funcEntry{}, &RuntimeError{Kind: UnknownFunction, At: vm.pc, Index: idx}
	}
	return vm.functions[idx], nil
}

// currentFrame returns the call frame RECURSE and RET operate on.
func (vm *VM) currentFrame() (callFrame, bool) {
	if len(vm.callStack) == 0 {
		return callFrame{}, false
	}
	return vm.callStack[len(vm.callStack)-1], true
}

// Err returns the error the VM halted with, or nil if it ran to
// completion normally.
func (vm *VM) Err() error {
	return vm.err
}

// Halted reports whether the VM has stopped executing, either because it
// hit HALT or because it hit an unrecoverable RuntimeError.
func (vm *VM) Halted() bool {
	return vm.halted
}

// Result returns the single value left on the operand stack when the
// program halted normally.
func (vm *VM) Result() (nolang.Value, error) {
	if vm.err != nil {
		return nolang.Value{}, vm.err
	}
	return vm.operandStack[0], nil
}
