// Package problem defines the wire model exchanged with optimization backends.
//
// A problem Instance is serialized to a single JSON argument and handed to a
// backend; the backend answers with one JSON Output object on stdout.
//
// Allocation problems are encoded in alternating-operator form. Each layer
// carries one linear term per variable (gamma * resource), one coupling term
// per non-zero upper-triangle constraint entry (gamma * constraint[i][j]) and
// a single mixer angle beta shared by all variables:
//
//	in, err := problem.EncodeAllocation(resources, constraints, problem.DefaultSchedule(), 1024)
//	payload, err := problem.Marshal(in)
//
// Encoding is deterministic. Any randomness belongs to the backend.
package problem
