// Package wasinn is a Go binding for the wasi_ephemeral_nn interface.
//
// A module compiled with GOOS=wasip1 GOARCH=wasm loads a model through the
// host, binds input tensors, runs inference and reads outputs:
//
//	graph, err := wasinn.Load([][]byte{xml, weights}, wasinn.EncodingOpenVINO, wasinn.TargetCPU)
//	if err != nil {
//	    return err
//	}
//	ctx, err := graph.InitExecutionContext()
//	if err != nil {
//	    return err
//	}
//	if err := ctx.SetInput(0, wasinn.NewTensor([]uint32{1, 3, 224, 224}, wasinn.TensorF32, pixels)); err != nil {
//	    return err
//	}
//	if err := ctx.Compute(); err != nil {
//	    return err
//	}
//	out, err := ctx.GetOutput(0, make([]byte, 4004))
//
// The package only marshals values into the flat layouts the host expects and
// turns host status codes into *errors.HostCallError. It performs no model
// validation, no retries and never interprets a nonzero status.
//
// Handles are owned by whoever received them. The interface has no release
// call, so graphs and execution contexts live until the host tears down the
// module instance.
package wasinn
