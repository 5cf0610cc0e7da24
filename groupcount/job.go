package groupcount

import (
	"github.com/kbukum/graphstep/mapreduce"
	"github.com/kbukum/graphstep/sideeffect"
)

// Job sums per-worker counts into one mapping.
type Job[K comparable] struct {
	Key string
}

func (j Job[K]) SideEffectKey() string { return j.Key }

// Map emits every count held by the partition. A partition that never
// materialized the side effect emits nothing.
func (j Job[K]) Map(partition *sideeffect.Store, emit mapreduce.Emitter[K, int64]) error {
	if !partition.Has(j.Key) {
		return nil
	}
	counts, err := Counts[K](partition, j.Key)
	if err != nil {
		return err
	}
	for k, n := range counts {
		emit(k, n)
	}
	return nil
}

func (j Job[K]) Combine(_ K, values []int64) int64 { return sum(values) }

func (j Job[K]) Reduce(_ K, values []int64) int64 { return sum(values) }

func (j Job[K]) Result(pairs []mapreduce.Pair[K, int64]) map[K]int64 {
	out := make(map[K]int64, len(pairs))
	for _, p := range pairs {
		out[p.Key] = p.Value
	}
	return out
}

func sum(values []int64) int64 {
	var n int64
	for _, v := range values {
		n += v
	}
	return n
}
