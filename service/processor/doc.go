// Package processor runs registered workflow definitions step by step,
// checkpointing the execution after every step. A step may suspend the
// execution; the checkpoint then waits in storage, for as long as needed and
// across process restarts, until Resume re-enters the suspended step with
// resume data.
package processor
