// Package mapreduce defines the map/combine/reduce contract that merges
// partitioned side effects after a distributed run.
//
// A Job reads one worker partition at a time in Map, collapses values sharing
// a key inside that partition in Combine, and merges the partial results of
// all partitions in Reduce. Run executes the three phases in-process, mapping
// partitions concurrently and reducing them in partition order so the result
// does not depend on scheduling.
//
// # Usage
//
//	counts, err := mapreduce.Run(ctx, job, partitions, mapreduce.WithWorkers(4))
package mapreduce
