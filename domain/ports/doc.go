// Package ports defines the interfaces that separate the wasi-nn marshaling
// logic from the environment it runs in. Guest code depends on NNHost,
// ImageHost and Arena; host code depends on Memory and Backend. The
// infrastructure packages provide the concrete adapters.
package ports
