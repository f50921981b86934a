package verifier

import "nolangvm/nolang"

// CondBlock locates a PRE/POST condition: the instruction that introduces
// it, the pc its body starts at, and the body's instruction count.
type CondBlock struct {
	At    int
	Start int
	Len   int
}

// CaseBlock locates one CASE arm inside a MATCH.
type CaseBlock struct {
	At  int
	Tag uint16
	Len int
}

// FuncInfo describes one FUNC block as discovered by the structural pass.
type FuncInfo struct {
	FuncPC         int
	EndFuncPC      int
	ParamCount     int
	BodyLen        int
	ParamTypes     []nolang.TypeTag
	PreConditions  []CondBlock
	PostConditions []CondBlock
	BodyStartPC    int
	// HashPC is the pc of the FUNC's trailing HASH instruction, or nil if
	// the block has none (caught separately by the Hashing pass).
	HashPC *int
}

// MatchInfo describes one MATCH block as discovered by the structural
// pass.
type MatchInfo struct {
	MatchPC      int
	VariantCount int
	Cases        []CaseBlock
	ExhaustPC    int
}

// ProgramContext is the structural pass's output: every FUNC and MATCH
// block in the program, the computed top-level entry point, and whether a
// fatal structural error means passes 3-8 should not run at all.
type ProgramContext struct {
	Functions  []FuncInfo
	Matches    []MatchInfo
	EntryPoint int
	Fatal      bool
}

type fieldUsage struct {
	typeTag, arg1, arg2, arg3 bool
}

var structuralFieldUsage = map[nolang.Opcode]fieldUsage{
	nolang.Bind:       {false, false, false, false},
	nolang.Ref:        {false, true, false, false},
	nolang.Drop:       {false, false, false, false},
	nolang.Const:      {true, true, true, false},
	nolang.ConstExt:   {true, true, false, false},
	nolang.Add:        {false, false, false, false},
	nolang.Sub:        {false, false, false, false},
	nolang.Mul:        {false, false, false, false},
	nolang.Div:        {false, false, false, false},
	nolang.Mod:        {false, false, false, false},
	nolang.Neg:        {false, false, false, false},
	nolang.Eq:         {false, false, false, false},
	nolang.Neq:        {false, false, false, false},
	nolang.Lt:         {false, false, false, false},
	nolang.Gt:         {false, false, false, false},
	nolang.Lte:        {false, false, false, false},
	nolang.Gte:        {false, false, false, false},
	nolang.And:        {false, false, false, false},
	nolang.Or:         {false, false, false, false},
	nolang.Not:        {false, false, false, false},
	nolang.Xor:        {false, false, false, false},
	nolang.Shl:        {false, false, false, false},
	nolang.Shr:        {false, false, false, false},
	nolang.Match:      {false, true, false, false},
	nolang.Case:       {false, true, true, false},
	nolang.Exhaust:    {false, false, false, false},
	nolang.Func:       {false, true, true, false},
	nolang.Pre:        {false, true, false, false},
	nolang.Post:       {false, true, false, false},
	nolang.Ret:        {false, false, false, false},
	nolang.Call:       {false, true, false, false},
	nolang.Recurse:    {false, true, false, false},
	nolang.EndFunc:    {false, false, false, false},
	nolang.Param:      {true, false, false, false},
	nolang.VariantNew: {true, true, true, false},
	nolang.TupleNew:   {true, true, false, false},
	nolang.Project:    {false, true, false, false},
	nolang.ArrayNew:   {true, true, false, false},
	nolang.ArrayGet:   {false, false, false, false},
	nolang.ArrayLen:   {false, false, false, false},
	nolang.Hash:       {false, true, true, true},
	nolang.Assert:     {false, false, false, false},
	nolang.Typeof:     {false, true, false, false},
	nolang.Halt:       {false, false, false, false},
	nolang.Nop:        {false, false, false, false},
}

func checkUnusedFields(instr nolang.Instruction, at int, errs *[]error) {
	u, ok := structuralFieldUsage[instr.Opcode]
	if !ok {
		return
	}
	bad := (!u.typeTag && instr.TypeTag != nolang.None) ||
		(!u.arg1 && instr.Arg1 != 0) ||
		(!u.arg2 && instr.Arg2 != 0) ||
		(!u.arg3 && instr.Arg3 != 0)
	if bad {
		*errs = append(*errs, &VerifyError{Kind: NonZeroUnusedField, At: at})
	}
}

// CheckStructural is Pass 2. It locates every FUNC and MATCH block in one
// linear scan, checks they are well-formed, and reports whether anything it
// saw was bad enough (NestedFunc, an unterminated FUNC) that passes 3-8
// cannot trust its output at all.
//
// FUNC bodies are walked linearly along with everything else: a FUNC does
// not cause the scan to skip its body, because MATCH blocks nested inside
// a function body still need to be discovered here. MATCH blocks, by
// contrast, are fully resolved (all their CASE arms scanned) the moment
// they are encountered, and the scan jumps past the whole construct —
// MATCH bodies are never entered linearly, since every arm was already
// recorded.
func CheckStructural(instrs []nolang.Instruction) (*ProgramContext, []error) {
	var errs []error
	ctx := &ProgramContext{}

	n := len(instrs)
	if n == 0 || instrs[n-1].Opcode != nolang.Halt {
		errs = append(errs, &VerifyError{Kind: MissingHalt})
	}

	inFunc := -1

	pc := 0
	for pc < n {
		instr := instrs[pc]

		switch instr.Opcode {
		case nolang.Func:
			if inFunc != -1 {
				errs = append(errs, &VerifyError{Kind: NestedFunc, At: pc})
				ctx.Fatal = true
				pc++
				continue
			}

			paramCount := int(instr.Arg1)
			bodyLen := int(instr.Arg2)
			expectedEndFunc := pc + 1 + bodyLen

			if expectedEndFunc >= n || instrs[expectedEndFunc].Opcode != nolang.EndFunc {
				errs = append(errs, &VerifyError{Kind: UnmatchedFunc, At: pc})
				ctx.Fatal = true
				pc++
				continue
			}

			scanPC := pc + 1
			var paramTypes []nolang.TypeTag
			for scanPC < expectedEndFunc && instrs[scanPC].Opcode == nolang.Param {
				paramTypes = append(paramTypes, instrs[scanPC].TypeTag)
				scanPC++
			}
			if len(paramTypes) != paramCount {
				errs = append(errs, &VerifyError{Kind: ParamCountMismatch, At: pc, Expected: paramCount, Found: len(paramTypes)})
			}

			var preConds, postConds []CondBlock
			for scanPC < expectedEndFunc && instrs[scanPC].Opcode == nolang.Pre {
				l := int(instrs[scanPC].Arg1)
				preConds = append(preConds, CondBlock{At: scanPC, Start: scanPC + 1, Len: l})
				scanPC += 1 + l
			}
			for scanPC < expectedEndFunc && instrs[scanPC].Opcode == nolang.Post {
				l := int(instrs[scanPC].Arg1)
				postConds = append(postConds, CondBlock{At: scanPC, Start: scanPC + 1, Len: l})
				scanPC += 1 + l
			}

			bodyStartPC := scanPC
			var hashPC *int
			if expectedEndFunc-1 >= 0 && instrs[expectedEndFunc-1].Opcode == nolang.Hash {
				hp := expectedEndFunc - 1
				hashPC = &hp
			}

			ctx.Functions = append(ctx.Functions, FuncInfo{
				FuncPC:         pc,
				EndFuncPC:      expectedEndFunc,
				ParamCount:     paramCount,
				BodyLen:        bodyLen,
				ParamTypes:     paramTypes,
				PreConditions:  preConds,
				PostConditions: postConds,
				BodyStartPC:    bodyStartPC,
				HashPC:         hashPC,
			})

			inFunc = pc
			pc++
			continue

		case nolang.EndFunc:
			if inFunc == -1 {
				errs = append(errs, &VerifyError{Kind: UnmatchedFunc, At: pc})
				ctx.Fatal = true
			}
			inFunc = -1
			pc++
			continue

		case nolang.Match:
			matchPC := pc
			variantCount := int(instr.Arg1)
			scanPC := pc + 1
			var cases []CaseBlock
			for scanPC < n && instrs[scanPC].Opcode == nolang.Case {
				c := instrs[scanPC]
				bodyLen := int(c.Arg2)
				cases = append(cases, CaseBlock{At: scanPC, Tag: c.Arg1, Len: bodyLen})
				scanPC += 1 + bodyLen
			}

			if scanPC >= n || instrs[scanPC].Opcode != nolang.Exhaust {
				errs = append(errs, &VerifyError{Kind: UnmatchedMatch, At: matchPC})
				pc++
				continue
			}
			exhaustPC := scanPC

			for i := 1; i < len(cases); i++ {
				if cases[i].Tag <= cases[i-1].Tag {
					errs = append(errs, &VerifyError{
						Kind:        CaseOrderViolation,
						At:          cases[i].At,
						ExpectedTag: cases[i-1].Tag + 1,
						FoundTag:    cases[i].Tag,
					})
				}
			}

			ctx.Matches = append(ctx.Matches, MatchInfo{
				MatchPC:      matchPC,
				VariantCount: variantCount,
				Cases:        cases,
				ExhaustPC:    exhaustPC,
			})
			pc = exhaustPC + 1
			continue

		default:
			checkUnusedFields(instr, pc, &errs)
			pc++
			if instr.Opcode == nolang.ConstExt && pc < n {
				pc++
			}
			continue
		}
	}

	if inFunc != -1 {
		errs = append(errs, &VerifyError{Kind: UnmatchedFunc, At: inFunc})
		ctx.Fatal = true
	}

	if len(ctx.Functions) > 0 {
		ctx.EntryPoint = ctx.Functions[len(ctx.Functions)-1].EndFuncPC + 1
	}

	return ctx, errs
}

// FindMatchInfo looks up a MatchInfo by its MATCH instruction's pc. Used by
// the Types and Stack passes, which both need to jump across a MATCH
// construct without re-deriving its shape.
func (ctx *ProgramContext) FindMatchInfo(matchPC int) (MatchInfo, bool) {
	for _, m := range ctx.Matches {
		if m.MatchPC == matchPC {
			return m, true
		}
	}
	return MatchInfo{}, false
}
