// SPDX-License-Identifier: MIT

package conductivity_test

import (
	"testing"

	"github.com/katalvlaran/kappa/conductivity"
)

// sink to defeat dead-code elimination
var sinkR *conductivity.Result

// benchmarkMethod builds a fresh crystal engine per iteration so the cache
// never short-circuits the solver.
func benchmarkMethod(b *testing.B, m conductivity.Method) {
	b.Helper()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		e, _ := cubicEngine(b, conductivity.WithIterations(5))
		b.StartTimer()
		r, err := e.Compute(m)
		if err != nil {
			b.Fatalf("%s: %v", m, err)
		}
		sinkR = r
	}
}

// BenchmarkRTA_Cubic includes the bandwidth computation.
func BenchmarkRTA_Cubic(b *testing.B) { benchmarkMethod(b, conductivity.RTA) }

// BenchmarkSC_Cubic adds the full scattering tensor and five iterations.
func BenchmarkSC_Cubic(b *testing.B) { benchmarkMethod(b, conductivity.SC) }

// BenchmarkInverse_Cubic adds the full scattering tensor and one inversion.
func BenchmarkInverse_Cubic(b *testing.B) { benchmarkMethod(b, conductivity.Inverse) }
