// Package generate produces small, syntactically valid NoLang programs —
// arithmetic expression towers, boolean MATCH/CASE/EXHAUST trees, and
// recursive functions carrying PRE/POST conditions — for use as verifier
// and VM regression fixtures. Generation fans out over a bounded worker
// pool so a large corpus request does not spawn one goroutine per program.
package generate

import (
	"fmt"
	"math/rand"

	"nolangvm/log"
	"nolangvm/nolang"
	"nolangvm/verifier"
)

// Shape names one of the program families this package knows how to
// produce.
type Shape string

const (
	ShapeArithmetic Shape = "arithmetic"
	ShapeMatch      Shape = "match"
	ShapeRecursive  Shape = "recursive"
)

// AllShapes lists every shape Generate can produce, in a stable order.
var AllShapes = []Shape{ShapeArithmetic, ShapeMatch, ShapeRecursive}

// GeneratedProgram is one generator output: the assembled program plus the
// parameters that produced it, so a caller can label or reproduce it.
type GeneratedProgram struct {
	Program *nolang.Program
	Shape   Shape
	Seed    int64
}

// Generate builds a single program of the given shape, deterministically
// from seed.
func Generate(seed int64, shape Shape) (*GeneratedProgram, error) {
	return generateOne(seed, shape)
}

// Train produces a corpus of n programs, cycling through AllShapes and
// seeding each from baseSeed+index, fanned out across workers goroutines.
// Results come back in submission order regardless of completion order.
func Train(n, workers int, baseSeed int64) ([]*GeneratedProgram, error) {
	if workers < 1 {
		workers = 1
	}

	pool := newWorkerPool(workers, int32(n))
	pool.start()

	go func() {
		for i := 0; i < n; i++ {
			shape := AllShapes[i%len(AllShapes)]
			pool.submit(genJob{index: i, seed: baseSeed + int64(i), shape: shape})
		}
		pool.closeJobs()
	}()

	out := make([]*GeneratedProgram, n)
	var firstErr error
	for i := 0; i < n; i++ {
		res := <-pool.results
		if res.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("program %d: %w", res.index, res.err)
			continue
		}
		out[res.index] = res.program
	}

	log.L.Debugw("train finished", "count", n, "workers", workers, "failed", firstErr != nil)
	return out, firstErr
}

// generateOne builds a single program of the given shape, deterministically
// from seed.
func generateOne(seed int64, shape Shape) (*GeneratedProgram, error) {
	rng := rand.New(rand.NewSource(seed))

	var instrs []nolang.Instruction
	switch shape {
	case ShapeArithmetic:
		instrs = buildArithmeticProgram(rng)
	case ShapeMatch:
		instrs = buildMatchProgram(rng)
	case ShapeRecursive:
		instrs = buildRecursiveProgram(rng)
	default:
		return nil, fmt.Errorf("generate: unknown shape %q", shape)
	}

	instrs = append(instrs, nolang.NewInstruction(nolang.Halt, nolang.None, 0, 0, 0))
	patchHashes(instrs)

	return &GeneratedProgram{
		Program: nolang.NewProgram(instrs),
		Shape:   shape,
		Seed:    seed,
	}, nil
}

func buildArithmeticProgram(rng *rand.Rand) []nolang.Instruction {
	n := rng.Intn(4) + 2 // 2-5 operands
	return arithmeticTower(rng, n)
}

func buildMatchProgram(rng *rand.Rand) []nolang.Instruction {
	scrutinee := constBool(rng.Intn(2) == 1)
	caseZero := []nolang.Instruction{constI64(int32(rng.Intn(100)))}
	caseOne := []nolang.Instruction{constI64(int32(rng.Intn(100)))}

	instrs := []nolang.Instruction{scrutinee}
	instrs = append(instrs, assembleMatch([][]nolang.Instruction{caseZero, caseOne})...)
	return instrs
}

// buildRecursiveProgram generates a factorial-shaped function: PARAM n
// (U64), a PRE bounding n, a POST requiring the result to be nonzero (true
// of every factorial), a body that matches n == 0 and either returns 1 or
// RECURSEs on n-1 and multiplies by n, and a top-level CALL against a
// random small seed value.
func buildRecursiveProgram(rng *rand.Rand) []nolang.Instruction {
	n := uint32(rng.Intn(6) + 1)
	limit := uint16(n) + 4

	pre := condBlock{
		opcode: nolang.Pre,
		body: []nolang.Instruction{
			nolang.NewInstruction(nolang.Ref, nolang.None, 0, 0, 0),
			constU64(1000),
			nolang.NewInstruction(nolang.Lt, nolang.None, 0, 0, 0),
		},
	}
	post := condBlock{
		opcode: nolang.Post,
		body: []nolang.Instruction{
			nolang.NewInstruction(nolang.Ref, nolang.None, 0, 0, 0),
			constU64(0),
			nolang.NewInstruction(nolang.Neq, nolang.None, 0, 0, 0),
		},
	}

	baseCase := []nolang.Instruction{
		constU64(1),
		nolang.NewInstruction(nolang.Ret, nolang.None, 0, 0, 0),
	}
	recurseCase := []nolang.Instruction{
		nolang.NewInstruction(nolang.Ref, nolang.None, 0, 0, 0),
		constU64(1),
		nolang.NewInstruction(nolang.Sub, nolang.None, 0, 0, 0),
		nolang.NewInstruction(nolang.Recurse, nolang.None, limit, 0, 0),
		nolang.NewInstruction(nolang.Ref, nolang.None, 0, 0, 0),
		nolang.NewInstruction(nolang.Mul, nolang.None, 0, 0, 0),
		nolang.NewInstruction(nolang.Ret, nolang.None, 0, 0, 0),
	}

	body := []nolang.Instruction{
		nolang.NewInstruction(nolang.Ref, nolang.None, 0, 0, 0),
		constU64(0),
		nolang.NewInstruction(nolang.Eq, nolang.None, 0, 0, 0),
	}
	body = append(body, assembleMatch([][]nolang.Instruction{recurseCase, baseCase})...)

	fn := assembleFunc([]nolang.TypeTag{nolang.U64}, []condBlock{pre, post}, body)

	entry := []nolang.Instruction{
		constU64(n),
		nolang.NewInstruction(nolang.Call, nolang.None, 0, 0, 0),
	}

	return append(fn, entry...)
}

// patchHashes fills in every FUNC block's trailing HASH instruction with
// its correct blake3 digest, mutating instrs in place. Callers build FUNC
// blocks with a zeroed HASH placeholder because the digest depends on the
// block's final encoded bytes, which are only known once the whole
// program (and its position within it) is assembled.
func patchHashes(instrs []nolang.Instruction) {
	ctx, _ := verifier.CheckStructural(instrs)
	for _, fn := range ctx.Functions {
		if fn.HashPC == nil {
			continue
		}
		digest := verifier.ComputeFuncHash(instrs, fn, *fn.HashPC)
		instrs[*fn.HashPC] = verifier.PackedHashInstruction(digest)
	}
}
