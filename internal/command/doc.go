// Package command provides a bounded synchronous facade over the hardware
// adapter's asynchronous writes.
//
// The adapter reports write completion on one-shot channels that may fire
// late or never. The bridge converts those into plain call-and-return
// operations by bounding every wait with a shared per-operation deadline:
// a call either returns the observed outcome or ErrTimeout, never blocks
// unboundedly, and always triggers a registry reload so the snapshot
// converges on whatever the hardware actually did.
//
// Multi-step operations (power then brightness, room fan-out) share a single
// deadline across all of their writes rather than granting each write its
// own.
package command
