package verifier

import (
	"time"

	"nolangvm/log"
	"nolangvm/nolang"

	"go.uber.org/multierr"
)

// Verify runs all 8 passes against a decoded program in strict order,
// collecting every error a pass reports rather than stopping at the first.
// Passes 3 through 8 (Exhaustion, Hashing, Types, Contracts, Stack-balance,
// Reachability) only run if the structural pass did not set ctx.Fatal —
// past that point there is no reliable FUNC/MATCH shape for them to reason
// about.
func Verify(p *nolang.Program) (*ProgramContext, error) {
	start := time.Now()
	log.L.Debugw("verify starting", "instructions", len(p.Instructions))

	var combined error

	for _, err := range checkLimits(p.Instructions) {
		combined = multierr.Append(combined, err)
	}

	ctx, structuralErrs := CheckStructural(p.Instructions)
	for _, err := range structuralErrs {
		combined = multierr.Append(combined, err)
	}

	if ctx.Fatal {
		log.L.Warnw("verify aborted after structural pass", "elapsed", time.Since(start))
		return ctx, combined
	}

	for _, err := range checkExhaustion(ctx) {
		combined = multierr.Append(combined, err)
	}
	for _, err := range checkHashing(p.Instructions, ctx) {
		combined = multierr.Append(combined, err)
	}
	for _, err := range checkTypes(p.Instructions, ctx) {
		combined = multierr.Append(combined, err)
	}
	for _, err := range checkContracts(p.Instructions, ctx) {
		combined = multierr.Append(combined, err)
	}
	for _, err := range checkStack(p.Instructions, ctx) {
		combined = multierr.Append(combined, err)
	}
	for _, err := range checkReachability(p.Instructions, ctx) {
		combined = multierr.Append(combined, err)
	}

	log.L.Debugw("verify finished",
		"elapsed", time.Since(start),
		"functions", len(ctx.Functions),
		"matches", len(ctx.Matches),
		"ok", combined == nil,
	)

	return ctx, combined
}
