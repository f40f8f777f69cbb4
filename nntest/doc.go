// Package nntest runs the guest bindings natively. Host is a scriptable
// stand-in for wasi_ephemeral_nn that records what the guest passed;
// Loopback routes calls into the real host functions in-process. Both work
// over a simulated linear memory.
package nntest
