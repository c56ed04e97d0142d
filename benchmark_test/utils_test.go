package benchmark_test

import (
	"testing"

	"github.com/hupe1980/termgo"
	"github.com/hupe1980/termgo/testutil"
)

// growProgram builds a deterministic random fixture with the given
// term count, 16 declarations, and 64 evaluations.
func growProgram(b *testing.B, terms int) *termgo.Program {
	b.Helper()

	p := termgo.NewProgram()
	b.Cleanup(func() { _ = p.Close() })

	rng := testutil.NewRNG(1)
	rng.GrowProgram(p, terms, 16, 64)

	return p
}
