package nntest

import (
	"sync"

	wasinn "github.com/wasinn-dev/wasinn-sdk"
	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
	"github.com/wasinn-dev/wasinn-sdk/internal/abi"
)

// Compile-time interface compliance checks
var (
	_ ports.NNHost    = (*Host)(nil)
	_ ports.ImageHost = (*Host)(nil)
)

// Call is one recorded host invocation.
type Call struct {
	Op     string
	Params []uint32
}

// LoadRecord is what the host saw in a load call.
type LoadRecord struct {
	Refs     []abi.BlobRef
	Words    []uint32
	Blobs    [][]byte
	Encoding uint32
	Target   uint32
}

// InputRecord is what the host saw in a set_input call.
type InputRecord struct {
	Tensor     entities.Tensor
	Descriptor abi.TensorDescriptor
	Context    uint32
	Index      uint32
}

// ImageRecord is what the host saw in an image call.
type ImageRecord struct {
	Path      string
	Width     uint32
	Height    uint32
	Precision uint32
	BufferMax uint32
}

// Host is a scriptable wasi_ephemeral_nn host. Every entry point succeeds
// unless a status was scripted for it; a failing call writes no outputs.
type Host struct {
	Mem *abi.SimMemory

	mu           sync.Mutex
	status       map[string]uint32
	nextGraph    uint32
	nextContext  uint32
	outputs      map[uint32][]byte
	bytesWritten *uint32
	image        []byte

	calls  []Call
	loads  []LoadRecord
	inputs []InputRecord
	images []ImageRecord
}

// Option configures a Host.
type Option func(*Host)

// WithStatus makes op return code.
func WithStatus(op string, code uint32) Option {
	return func(h *Host) {
		h.status[op] = code
	}
}

// WithGraphHandle sets the handle returned by the next load. Later loads
// count up from it.
func WithGraphHandle(handle uint32) Option {
	return func(h *Host) {
		h.nextGraph = handle
	}
}

// WithContextHandle sets the handle returned by the next
// init_execution_context. Later calls count up from it.
func WithContextHandle(handle uint32) Option {
	return func(h *Host) {
		h.nextContext = handle
	}
}

// WithOutput sets the bytes get_output copies for index.
func WithOutput(index uint32, data []byte) Option {
	return func(h *Host) {
		h.outputs[index] = data
	}
}

// WithBytesWritten overrides the count get_output reports.
func WithBytesWritten(n uint32) Option {
	return func(h *Host) {
		h.bytesWritten = &n
	}
}

// WithImageData sets the bytes the image calls produce.
func WithImageData(data []byte) Option {
	return func(h *Host) {
		h.image = data
	}
}

// New creates a stub host with its own simulated memory.
func New(opts ...Option) *Host {
	h := &Host{
		Mem:     abi.NewSimMemory(0),
		status:  make(map[string]uint32),
		outputs: make(map[uint32][]byte),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewArena returns a per-call arena over the host's memory.
func (h *Host) NewArena() ports.Arena {
	return abi.NewSimArena(h.Mem)
}

// Client returns a guest client wired to this host.
func (h *Host) Client(opts ...wasinn.Option) *wasinn.Client {
	base := []wasinn.Option{wasinn.WithHost(h), wasinn.WithArenaFactory(h.NewArena)}
	return wasinn.NewClient(append(base, opts...)...)
}

// SetStatus scripts the status of op for subsequent calls.
func (h *Host) SetStatus(op string, code uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status[op] = code
}

// Calls returns every invocation in order.
func (h *Host) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Call(nil), h.calls...)
}

// Loads returns every decoded load request.
func (h *Host) Loads() []LoadRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]LoadRecord(nil), h.loads...)
}

// Inputs returns every decoded set_input request.
func (h *Host) Inputs() []InputRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]InputRecord(nil), h.inputs...)
}

// Images returns every decoded image request.
func (h *Host) Images() []ImageRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ImageRecord(nil), h.images...)
}

// begin records the call and returns its scripted status.
func (h *Host) begin(op string, params ...uint32) uint32 {
	h.calls = append(h.calls, Call{Op: op, Params: params})
	return h.status[op]
}

// Load implements ports.NNHost.
func (h *Host) Load(builderPtr, builderLen, encoding, target, outGraph uint32) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if code := h.begin(wasinn.OpLoad, builderPtr, builderLen, encoding, target, outGraph); code != 0 {
		return code
	}

	rec := LoadRecord{Encoding: encoding, Target: target}
	refs, err := abi.DecodeBlobSequence(h.Mem, builderPtr, builderLen)
	if err != nil {
		return 1
	}
	rec.Refs = refs
	rec.Words = abi.FlattenBlobRefs(refs)
	if rec.Blobs, err = abi.ReadBlobs(h.Mem, builderPtr, builderLen, 0); err != nil {
		return 1
	}
	h.loads = append(h.loads, rec)

	h.Mem.WriteUint32Le(outGraph, h.nextGraph)
	h.nextGraph++
	return 0
}

// InitExecutionContext implements ports.NNHost.
func (h *Host) InitExecutionContext(graph, outContext uint32) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if code := h.begin(wasinn.OpInitExecutionContext, graph, outContext); code != 0 {
		return code
	}
	h.Mem.WriteUint32Le(outContext, h.nextContext)
	h.nextContext++
	return 0
}

// SetInput implements ports.NNHost.
func (h *Host) SetInput(context, index, tensorPtr uint32) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if code := h.begin(wasinn.OpSetInput, context, index, tensorPtr); code != 0 {
		return code
	}

	raw, ok := h.Mem.Read(tensorPtr, abi.TensorDescriptorSize)
	if !ok {
		return 1
	}
	desc, err := abi.DecodeTensorDescriptor(raw)
	if err != nil {
		return 1
	}
	t, err := abi.ReadTensor(h.Mem, tensorPtr)
	if err != nil {
		return 1
	}
	h.inputs = append(h.inputs, InputRecord{Tensor: t, Descriptor: desc, Context: context, Index: index})
	return 0
}

// Compute implements ports.NNHost.
func (h *Host) Compute(context uint32) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.begin(wasinn.OpCompute, context)
}

// GetOutput implements ports.NNHost.
func (h *Host) GetOutput(context, index, outBuffer, outBufferMax, outBytesWritten uint32) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if code := h.begin(wasinn.OpGetOutput, context, index, outBuffer, outBufferMax, outBytesWritten); code != 0 {
		return code
	}

	n := h.fill(h.outputs[index], outBuffer, outBufferMax)
	if h.bytesWritten != nil {
		n = *h.bytesWritten
	}
	h.Mem.WriteUint32Le(outBytesWritten, n)
	return 0
}

// ImageToTensor implements ports.ImageHost.
func (h *Host) ImageToTensor(pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax uint32) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if code := h.begin(wasinn.OpImageToTensor, pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax); code != 0 {
		return code
	}
	h.recordImage(pathPtr, pathLen, width, height, precision, outBufferMax)
	h.fill(h.image, outBuffer, outBufferMax)
	return 0
}

// ConvertImage implements ports.ImageHost.
func (h *Host) ConvertImage(pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax, outBytesWritten uint32) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if code := h.begin(wasinn.OpConvertImage, pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax, outBytesWritten); code != 0 {
		return code
	}
	h.recordImage(pathPtr, pathLen, width, height, precision, outBufferMax)
	n := h.fill(h.image, outBuffer, outBufferMax)
	h.Mem.WriteUint32Le(outBytesWritten, n)
	return 0
}

func (h *Host) recordImage(pathPtr, pathLen, width, height, precision, max uint32) {
	var path string
	if raw, ok := h.Mem.Read(pathPtr, pathLen); ok {
		path = string(raw)
	}
	h.images = append(h.images, ImageRecord{Path: path, Width: width, Height: height, Precision: precision, BufferMax: max})
}

// fill copies as much of data as fits and returns the count.
func (h *Host) fill(data []byte, ptr, max uint32) uint32 {
	n := min(uint32(len(data)), max)
	if n > 0 {
		h.Mem.Write(ptr, data[:n])
	}
	return n
}
