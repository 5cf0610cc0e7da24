// Package computer executes traversals in computer mode: a bulk-synchronous
// run across a fixed pool of workers.
//
// Each worker owns a clone of the submitted traversal with its own
// side-effect partition. In every superstep the live traversers are hashed
// to workers by payload, each worker applies the step at every traverser's
// location once, and outputs that stayed at their step advance along the
// routing table. Traversers that reach the end of the root traversal halt.
// When no live traverser remains, the map/reduce jobs declared by the steps
// merge the worker partitions into the result side effects.
package computer
