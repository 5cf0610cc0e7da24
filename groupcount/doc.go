// Package groupcount provides GroupCountStep, a pass-through step that counts
// traversers by a classification key into a side effect.
//
// Counts grow by traverser bulk, not by one. After a distributed run the
// per-worker counts are merged by the step's map/combine/reduce job, which
// yields the same mapping a sequential run produces.
package groupcount
