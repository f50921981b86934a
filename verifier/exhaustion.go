package verifier

// checkExhaustion is Pass 3. For every MATCH block found by the structural
// pass it confirms the CASE arms cover every declared variant exactly once.
func checkExhaustion(ctx *ProgramContext) []error {
	var errs []error

	for _, m := range ctx.Matches {
		seen := make(map[uint16]bool, len(m.Cases))
		for _, c := range m.Cases {
			if seen[c.Tag] {
				errs = append(errs, &VerifyError{Kind: DuplicateCase, At: c.At, Tag: c.Tag})
				continue
			}
			seen[c.Tag] = true
		}

		if len(seen) != m.VariantCount {
			errs = append(errs, &VerifyError{
				Kind:     NonExhaustiveMatch,
				At:       m.MatchPC,
				Expected: m.VariantCount,
				Found:    len(seen),
			})
		}
	}

	return errs
}
