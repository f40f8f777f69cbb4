// Package host runs wasi-nn guest modules.
//
// An Executor owns a wazero runtime with WASI preview1, the
// wasi_ephemeral_nn host module and the wasinn_host log channel. Graphs and
// execution contexts created by a guest live until that guest's Run returns.
package host
