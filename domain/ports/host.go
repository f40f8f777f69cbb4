package ports

// NNHost is the raw wasi_ephemeral_nn import surface. Every parameter is a
// 32-bit word and pointer parameters are addresses in the guest's linear
// memory. The return value is the host status code, 0 meaning success.
//
// Parameter order and arity are the wire contract and must not change.
type NNHost interface {
	Load(builderPtr, builderLen, encoding, target, outGraph uint32) uint32
	InitExecutionContext(graph, outContext uint32) uint32
	SetInput(context, index, tensorPtr uint32) uint32
	Compute(context uint32) uint32
	GetOutput(context, index, outBuffer, outBufferMax, outBytesWritten uint32) uint32
}

// ImageHost is the optional image conversion surface offered by some hosts.
// Two variants exist in the wild: image_to_tensor without a bytes-written
// out-parameter and convert_image with one.
type ImageHost interface {
	ImageToTensor(pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax uint32) uint32
	ConvertImage(pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax, outBytesWritten uint32) uint32
}
