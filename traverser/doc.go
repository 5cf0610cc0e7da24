// Package traverser defines the unit of data that flows through a traversal.
//
// A Traverser carries an immutable payload, a bulk (the number of identical
// logical copies it stands for), a location (the ID of the step it is
// currently routed to) and the side-effect scope of its execution.
//
// Traversers are never shared between branches: every fan-out produces an
// independent copy through Split.
package traverser
