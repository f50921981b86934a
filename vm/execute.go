package vm

import (
	"math"
	"time"

	"nolangvm/log"
	"nolangvm/nolang"
)

// Run drives the dispatch loop to completion, returning the program's
// single result value or the runtime error it halted with.
func (vm *VM) Run() (nolang.Value, error) {
	start := time.Now()
	steps := 0
	for !vm.halted {
		if err := vm.Step(); err != nil {
			vm.halted = true
			vm.err = err
			log.L.Debugw("run trapped", "steps", steps, "elapsed", time.Since(start), "error", err)
			return nolang.Value{}, err
		}
		steps++
	}
	result, err := vm.Result()
	log.L.Debugw("run halted", "steps", steps, "elapsed", time.Since(start))
	return result, err
}

// Step executes exactly one instruction, leaving pc wherever that
// instruction's semantics put it (straight-line advance, a CALL/RECURSE
// jump into a function body, a RET jump back to the caller, or a MATCH
// jump into a CASE body).
func (vm *VM) Step() error {
	vm.resolveCaseJumps()

	if vm.pc < 0 || vm.pc >= len(vm.program.Instructions) {
		return &RuntimeError{Kind: UnexpectedEndOfProgram, At: vm.pc}
	}

	instr := vm.program.Instructions[vm.pc]

	switch instr.Opcode {
	case nolang.Halt:
		return vm.execHalt()
	case nolang.Match:
		return vm.execMatch()
	case nolang.Call:
		return vm.execCall(instr)
	case nolang.Recurse:
		return vm.execRecurse(instr)
	case nolang.Ret:
		return vm.execRet()
	case nolang.Func, nolang.Pre, nolang.Post, nolang.Param, nolang.EndFunc,
		nolang.Case, nolang.Exhaust, nolang.Hash:
		// These only ever run as part of a FUNC prologue/epilogue or a
		// MATCH dispatch, both of which jump straight past them. Landing
		// on one directly means the program counter strayed outside any
		// region the structural scan recognizes.
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	default:
		next, err := vm.execOpcode(vm.pc, instr)
		if err != nil {
			return err
		}
		vm.pc = next
		return nil
	}
}

// resolveCaseJumps pops any case contexts whose body has just finished,
// redirecting pc past EXHAUST. A MATCH nested directly at the tail of
// another CASE body can close more than one context at the same pc, so
// this loops rather than checking once.
func (vm *VM) resolveCaseJumps() {
	for len(vm.caseStack) > 0 {
		top := vm.caseStack[len(vm.caseStack)-1]
		if vm.pc != top.bodyEndPC {
			return
		}
		vm.caseStack = vm.caseStack[:len(vm.caseStack)-1]
		vm.pc = top.afterExhaustPC
	}
}

func (vm *VM) execHalt() error {
	switch len(vm.operandStack) {
	case 0:
		vm.halted = true
		vm.err = &RuntimeError{Kind: HaltWithEmptyStack, At: vm.pc}
		return vm.err
	case 1:
		vm.halted = true
		return nil
	default:
		vm.halted = true
		vm.err = &RuntimeError{Kind: HaltWithMultipleValues, At: vm.pc, Count: len(vm.operandStack)}
		return vm.err
	}
}

// runCondBlock executes a PRE/POST span's instructions in place through
// execOpcode, leaving the span's result on the operand stack. The
// Contracts pass only checks that a span ends on a Bool and does not
// reject control-flow opcodes; execOpcode has no case for MATCH, CALL,
// RECURSE or RET, so a span containing one fails with TypeMismatch.
func (vm *VM) runCondBlock(start, length int) error {
	end := start + length
	pc := start
	for pc < end {
		instr := vm.program.Instructions[pc]
		vm.pc = pc
		next, err := vm.execOpcode(pc, instr)
		if err != nil {
			return err
		}
		pc = next
	}
	return nil
}

// execOpcode runs every opcode that has no control-flow effect of its
// own: it always advances linearly (by one slot, or two for CONST_EXT's
// data carrier). It is shared between the main dispatch loop and
// runCondBlock.
func (vm *VM) execOpcode(pc int, instr nolang.Instruction) (int, error) {
	switch instr.Opcode {
	case nolang.Const:
		v, ok := instr.ConstValue()
		if !ok {
			return 0, &RuntimeError{Kind: TypeMismatch, At: pc}
		}
		if err := vm.push(v); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.ConstExt:
		v, err := vm.execConstExt(pc, instr)
		if err != nil {
			return 0, err
		}
		if err := vm.push(v); err != nil {
			return 0, err
		}
		return pc + 2, nil

	case nolang.Bind:
		v, err := vm.pop()
		if err != nil {
			return 0, err
		}
		vm.bind(v)
		return pc + 1, nil

	case nolang.Drop:
		if err := vm.dropBinding(); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.Ref:
		v, err := vm.ref(int(instr.Arg1))
		if err != nil {
			return 0, err
		}
		if err := vm.push(v); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.Add, nolang.Sub, nolang.Mul, nolang.Div, nolang.Mod:
		if err := vm.execArith(instr.Opcode); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.Neg:
		if err := vm.execNeg(); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.Eq, nolang.Neq, nolang.Lt, nolang.Gt, nolang.Lte, nolang.Gte:
		if err := vm.execCompare(instr.Opcode); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.And, nolang.Or, nolang.Xor:
		if err := vm.execBoolOrBitwise(instr.Opcode); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.Not:
		if err := vm.execNot(); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.Shl, nolang.Shr:
		if err := vm.execShift(instr.Opcode); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.VariantNew:
		if err := vm.execVariantNew(instr); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.TupleNew:
		if err := vm.execCompoundNew(int(instr.Arg1), false); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.ArrayNew:
		if err := vm.execCompoundNew(int(instr.Arg1), true); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.Project:
		if err := vm.execProject(int(instr.Arg1)); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.ArrayGet:
		if err := vm.execArrayGet(); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.ArrayLen:
		if err := vm.execArrayLen(); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.Assert:
		if err := vm.execAssert(); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.Typeof:
		if err := vm.execTypeof(nolang.TypeTag(instr.Arg1)); err != nil {
			return 0, err
		}
		return pc + 1, nil

	case nolang.Nop:
		return pc + 1, nil

	default:
		return 0, &RuntimeError{Kind: TypeMismatch, At: pc}
	}
}

func (vm *VM) execConstExt(pc int, instr nolang.Instruction) (nolang.Value, error) {
	if pc+1 >= len(vm.program.Instructions) {
		return nolang.Value{}, &RuntimeError{Kind: UnexpectedEndOfProgram, At: pc}
	}
	carrier := vm.program.Instructions[pc+1]
	val := uint64(instr.Arg1)<<48 | uint64(carrier.Arg1)<<32 | uint64(carrier.Arg2)<<16 | uint64(carrier.Arg3)

	switch instr.TypeTag {
	case nolang.I64:
		return nolang.NewI64(int64(val)), nil
	case nolang.U64:
		return nolang.NewU64(val), nil
	case nolang.F64:
		f := math.Float64frombits(val)
		if err := vm.checkFloat(f); err != nil {
			return nolang.Value{}, err
		}
		return nolang.NewF64(f), nil
	default:
		return nolang.Value{}, &RuntimeError{Kind: TypeMismatch, At: pc}
	}
}

func (vm *VM) execArith(op nolang.Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if a.Kind != b.Kind {
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	}

	switch a.Kind {
	case nolang.I64:
		var r int64
		switch op {
		case nolang.Add:
			r = a.I64 + b.I64
		case nolang.Sub:
			r = a.I64 - b.I64
		case nolang.Mul:
			r = a.I64 * b.I64
		case nolang.Div:
			if b.I64 == 0 {
				return &RuntimeError{Kind: DivisionByZero, At: vm.pc}
			}
			r = a.I64 / b.I64
		case nolang.Mod:
			if b.I64 == 0 {
				return &RuntimeError{Kind: DivisionByZero, At: vm.pc}
			}
			r = a.I64 % b.I64
		}
		return vm.push(nolang.NewI64(r))

	case nolang.U64:
		var r uint64
		switch op {
		case nolang.Add:
			r = a.U64 + b.U64
		case nolang.Sub:
			r = a.U64 - b.U64
		case nolang.Mul:
			r = a.U64 * b.U64
		case nolang.Div:
			if b.U64 == 0 {
				return &RuntimeError{Kind: DivisionByZero, At: vm.pc}
			}
			r = a.U64 / b.U64
		case nolang.Mod:
			if b.U64 == 0 {
				return &RuntimeError{Kind: DivisionByZero, At: vm.pc}
			}
			r = a.U64 % b.U64
		}
		return vm.push(nolang.NewU64(r))

	case nolang.F64:
		if op == nolang.Mod {
			return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
		}
		var r float64
		switch op {
		case nolang.Add:
			r = a.F64 + b.F64
		case nolang.Sub:
			r = a.F64 - b.F64
		case nolang.Mul:
			r = a.F64 * b.F64
		case nolang.Div:
			if b.F64 == 0 {
				return &RuntimeError{Kind: DivisionByZero, At: vm.pc}
			}
			r = a.F64 / b.F64
		}
		if err := vm.checkFloat(r); err != nil {
			return err
		}
		return vm.push(nolang.NewF64(r))

	default:
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	}
}

func (vm *VM) execNeg() error {
	a, err := vm.pop()
	if err != nil {
		return err
	}
	switch a.Kind {
	case nolang.I64:
		return vm.push(nolang.NewI64(-a.I64))
	case nolang.F64:
		r := -a.F64
		if err := vm.checkFloat(r); err != nil {
			return err
		}
		return vm.push(nolang.NewF64(r))
	default:
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	}
}

func (vm *VM) execCompare(op nolang.Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}

	if op == nolang.Eq {
		return vm.push(nolang.NewBool(a.Equal(b)))
	}
	if op == nolang.Neq {
		return vm.push(nolang.NewBool(!a.Equal(b)))
	}

	if a.Kind != b.Kind {
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	}

	var cmp int
	switch a.Kind {
	case nolang.I64:
		cmp = cmpOrdered(a.I64, b.I64)
	case nolang.U64:
		cmp = cmpOrdered(a.U64, b.U64)
	case nolang.F64:
		cmp = cmpOrdered(a.F64, b.F64)
	case nolang.Char:
		cmp = cmpOrdered(a.Char, b.Char)
	case nolang.Bool:
		cmp = cmpOrdered(boolOrdinal(a.Bool), boolOrdinal(b.Bool))
	default:
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	}

	var result bool
	switch op {
	case nolang.Lt:
		result = cmp < 0
	case nolang.Gt:
		result = cmp > 0
	case nolang.Lte:
		result = cmp <= 0
	case nolang.Gte:
		result = cmp >= 0
	}
	return vm.push(nolang.NewBool(result))
}

func cmpOrdered[T int64 | uint64 | float64 | rune | int](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolOrdinal(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (vm *VM) execBoolOrBitwise(op nolang.Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if a.Kind != b.Kind {
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	}

	switch a.Kind {
	case nolang.Bool:
		var r bool
		switch op {
		case nolang.And:
			r = a.Bool && b.Bool
		case nolang.Or:
			r = a.Bool || b.Bool
		case nolang.Xor:
			r = a.Bool != b.Bool
		}
		return vm.push(nolang.NewBool(r))

	case nolang.I64:
		var r int64
		switch op {
		case nolang.And:
			r = a.I64 & b.I64
		case nolang.Or:
			r = a.I64 | b.I64
		case nolang.Xor:
			r = a.I64 ^ b.I64
		}
		return vm.push(nolang.NewI64(r))

	case nolang.U64:
		var r uint64
		switch op {
		case nolang.And:
			r = a.U64 & b.U64
		case nolang.Or:
			r = a.U64 | b.U64
		case nolang.Xor:
			r = a.U64 ^ b.U64
		}
		return vm.push(nolang.NewU64(r))

	default:
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	}
}

func (vm *VM) execNot() error {
	a, err := vm.pop()
	if err != nil {
		return err
	}
	switch a.Kind {
	case nolang.Bool:
		return vm.push(nolang.NewBool(!a.Bool))
	case nolang.I64:
		return vm.push(nolang.NewI64(^a.I64))
	case nolang.U64:
		return vm.push(nolang.NewU64(^a.U64))
	default:
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	}
}

// execShift implements SHL/SHR: the shift amount is taken from the low 32
// bits of the second operand, reduced mod 64 ("wrapping"), so a shift
// amount at or past the value's width is well-defined rather than
// relying on Go's own shift-count rules.
func (vm *VM) execShift(op nolang.Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if a.Kind != b.Kind {
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	}

	switch a.Kind {
	case nolang.I64:
		shift := shiftCount(uint32(uint64(b.I64)))
		var r int64
		if op == nolang.Shl {
			r = a.I64 << shift
		} else {
			r = a.I64 >> shift
		}
		return vm.push(nolang.NewI64(r))

	case nolang.U64:
		shift := shiftCount(uint32(b.U64))
		var r uint64
		if op == nolang.Shl {
			r = a.U64 << shift
		} else {
			r = a.U64 >> shift
		}
		return vm.push(nolang.NewU64(r))

	default:
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	}
}

func shiftCount(low32 uint32) uint64 {
	return uint64(low32) % 64
}

func (vm *VM) execVariantNew(instr nolang.Instruction) error {
	payload, err := vm.pop()
	if err != nil {
		return err
	}
	return vm.push(nolang.NewVariant(instr.Arg1, instr.Arg2, payload))
}

// execCompoundNew backs both TUPLE_NEW and ARRAY_NEW: it pops n values
// and reverses them back into source order, since the first element
// declared is the deepest (first pushed, last popped).
func (vm *VM) execCompoundNew(n int, isArray bool) error {
	elems := make([]nolang.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		elems[i] = v
	}
	if isArray {
		return vm.push(nolang.NewArray(elems))
	}
	return vm.push(nolang.NewTuple(elems))
}

func (vm *VM) execProject(field int) error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	if v.Kind != nolang.Tuple {
		return &RuntimeError{Kind: ProjectOnNonTuple, At: vm.pc}
	}
	if field < 0 || field >= len(v.Tuple) {
		return &RuntimeError{Kind: ProjectOutOfBounds, At: vm.pc, Field: field, Size: len(v.Tuple)}
	}
	return vm.push(v.Tuple[field])
}

func (vm *VM) execArrayGet() error {
	idx, err := vm.pop()
	if err != nil {
		return err
	}
	arr, err := vm.pop()
	if err != nil {
		return err
	}
	if arr.Kind != nolang.Array {
		return &RuntimeError{Kind: NotAnArray, At: vm.pc}
	}
	if idx.Kind != nolang.U64 {
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	}
	if idx.U64 >= uint64(len(arr.Array)) {
		return &RuntimeError{Kind: ArrayIndexOutOfBounds, At: vm.pc, Index: int(idx.U64), Length: len(arr.Array)}
	}
	return vm.push(arr.Array[idx.U64])
}

func (vm *VM) execArrayLen() error {
	arr, err := vm.pop()
	if err != nil {
		return err
	}
	if arr.Kind != nolang.Array {
		return &RuntimeError{Kind: NotAnArray, At: vm.pc}
	}
	return vm.push(nolang.NewU64(uint64(len(arr.Array))))
}

func (vm *VM) execAssert() error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	if v.Kind != nolang.Bool {
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	}
	if !v.Bool {
		return &RuntimeError{Kind: AssertFailed, At: vm.pc}
	}
	return nil
}

// execTypeof peeks non-destructively: the original value stays, with a
// Bool of the tag comparison pushed on top of it.
func (vm *VM) execTypeof(t nolang.TypeTag) error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	if err := vm.push(v); err != nil {
		return err
	}
	return vm.push(nolang.NewBool(v.Kind == t))
}

// execMatch pops the scrutinee, locates the CASE arm whose tag matches,
// pushes the Variant's payload (Bool scrutinees carry none), and jumps
// into that arm while recording how to resume past EXHAUST.
func (vm *VM) execMatch() error {
	m, ok := vm.matches[vm.pc]
	if !ok {
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	}

	scrutinee, err := vm.pop()
	if err != nil {
		return err
	}

	var tag uint16
	switch scrutinee.Kind {
	case nolang.Bool:
		if scrutinee.Bool {
			tag = 1
		}
	case nolang.Variant:
		tag = scrutinee.Variant.Tag
	default:
		return &RuntimeError{Kind: TypeMismatch, At: vm.pc}
	}

	var matched *caseEntry
	for i := range m.cases {
		if m.cases[i].tag == tag {
			matched = &m.cases[i]
			break
		}
	}
	if matched == nil {
		return &RuntimeError{Kind: NoMatchingCase, At: vm.pc, Tag: tag}
	}

	if scrutinee.Kind == nolang.Variant {
		if err := vm.push(*scrutinee.Variant.Payload); err != nil {
			return err
		}
	}

	vm.caseStack = append(vm.caseStack, caseContext{
		bodyEndPC:      matched.bodyEnd,
		afterExhaustPC: m.exhaustPC + 1,
	})
	vm.pc = matched.bodyStart
	return nil
}

func (vm *VM) execCall(instr nolang.Instruction) error {
	fn, err := vm.findFunc(int(instr.Arg1))
	if err != nil {
		return err
	}
	return vm.enterFunc(fn, int(instr.Arg1), 0)
}

func (vm *VM) execRecurse(instr nolang.Instruction) error {
	frame, ok := vm.currentFrame()
	if !ok {
		return &RuntimeError{Kind: UnexpectedEndOfProgram, At: vm.pc}
	}
	fn, err := vm.findFunc(frame.funcIdx)
	if err != nil {
		return err
	}
	depth := frame.recursionDepth + 1
	if depth > int(instr.Arg1) {
		return &RuntimeError{Kind: RecursionDepthExceeded, At: vm.pc, Limit: int(instr.Arg1)}
	}
	return vm.enterFunc(fn, frame.funcIdx, depth)
}

// enterFunc is the CALL/RECURSE machinery common to both: pop arguments
// in declaration order, bind them (so the last-declared parameter ends
// up as de Bruijn index 0), run every PRE span, then push a call frame
// and jump into the body.
func (vm *VM) enterFunc(fn funcEntry, funcIdx int, recursionDepth int) error {
	callPC := vm.pc
	if len(vm.callStack) >= MaxCallDepth {
		return &RuntimeError{Kind: RecursionDepthExceeded, At: callPC, Limit: MaxCallDepth}
	}

	args := make([]nolang.Value, fn.paramCount)
	for i := fn.paramCount - 1; i >= 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		args[i] = v
	}

	bindingsBase := len(vm.bindings)
	for _, v := range args {
		vm.bind(v)
	}

	for _, span := range fn.preConditions {
		if err := vm.runCondBlock(span.start, span.length); err != nil {
			return err
		}
		result, err := vm.pop()
		if err != nil {
			return err
		}
		if result.Kind != nolang.Bool {
			return &RuntimeError{Kind: TypeMismatch, At: span.start - 1}
		}
		if !result.Bool {
			return &RuntimeError{Kind: PreconditionFailed, At: span.start - 1}
		}
	}

	vm.callStack = append(vm.callStack, callFrame{
		returnPC:       callPC + 1,
		bindingsBase:   bindingsBase,
		funcIdx:        funcIdx,
		recursionDepth: recursionDepth,
		postConditions: fn.postConditions,
	})
	vm.pc = fn.bodyStartPC
	return nil
}

// execRet pops the return value and the current call frame, runs any
// POST spans with the return value as binding index 0 (the declared
// parameters shift one index deeper for the duration), truncates the
// binding stack back to where the call found it, and resumes the caller
// with the return value back on the operand stack.
func (vm *VM) execRet() error {
	retPC := vm.pc
	retVal, err := vm.pop()
	if err != nil {
		return err
	}

	frame, ok := vm.currentFrame()
	if !ok {
		return &RuntimeError{Kind: UnexpectedEndOfProgram, At: retPC}
	}
	vm.callStack = vm.callStack[:len(vm.callStack)-1]

	if len(frame.postConditions) > 0 {
		vm.bind(retVal)
		for _, span := range frame.postConditions {
			if err := vm.runCondBlock(span.start, span.length); err != nil {
				return err
			}
			result, err := vm.pop()
			if err != nil {
				return err
			}
			if result.Kind != nolang.Bool {
				return &RuntimeError{Kind: TypeMismatch, At: span.start - 1}
			}
			if !result.Bool {
				return &RuntimeError{Kind: PostconditionFailed, At: span.start - 1}
			}
		}
		if err := vm.dropBinding(); err != nil {
			return err
		}
	}

	vm.bindings = vm.bindings[:frame.bindingsBase]
	vm.pc = frame.returnPC
	return vm.push(retVal)
}
