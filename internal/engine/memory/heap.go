package memory

import (
	"math"
	"runtime/debug"
	"runtime/metrics"
)

// HeapProbe reports heap usage against a limit. ok is false when no limit is
// known, in which case the heap ratio is not used for pressure detection.
type HeapProbe interface {
	HeapUsage() (used, limit uint64, ok bool)
}

// RuntimeHeap measures the Go heap against the soft memory limit set with
// debug.SetMemoryLimit or GOMEMLIMIT.
type RuntimeHeap struct{}

const heapObjectsMetric = "/memory/classes/heap/objects:bytes"

// HeapUsage implements HeapProbe.
func (RuntimeHeap) HeapUsage() (used, limit uint64, ok bool) {
	l := debug.SetMemoryLimit(-1)
	if l <= 0 || l == math.MaxInt64 {
		return 0, 0, false
	}

	sample := []metrics.Sample{{Name: heapObjectsMetric}}
	metrics.Read(sample)
	if sample[0].Value.Kind() != metrics.KindUint64 {
		return 0, 0, false
	}
	return sample[0].Value.Uint64(), uint64(l), true
}
