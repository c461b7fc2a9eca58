/*
Package quantum implements the optimization bridge between browser subsystems
and the optimization backends.

# Flow

	consumer -> problem encoder -> Bridge -> Supervisor -> Backend -> decoder -> consumer
	                                              |
	                                         Exhausted
	                                              v
	                                      Classical optimizer

# Backends

  - ProcessAdapter spawns the qsolver executable once per call with the
    variant's entry point and the JSON problem as its only argument.
  - Simulator runs the same solver in process.

Both return a BackendResult or a *Failure. BackendError and ProtocolError
are recoverable and drive the supervisor; SizeMismatch is not.

# Allocation

OptimizeAllocation always yields a 0/1 vector of the input length unless the
input itself is invalid. When every variant fails the classical optimizer
answers instead:

	alloc, err := bridge.OptimizeAllocation(ctx, resources, constraints)

Counts are decoded by strictly highest frequency, ties going to the
lexicographically smallest bit-string. Character i of a bit-string is
variable i.
*/
package quantum
