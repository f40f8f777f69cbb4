package hostfuncs

import (
	"context"
	"log/slog"
	"os"

	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
)

// Names of the image conversion functions.
const (
	FuncImageToTensor = "image_to_tensor"
	FuncConvertImage  = "convert_image"
)

// DefaultMaxImageFileBytes bounds the size of an image file read for a guest.
const DefaultMaxImageFileBytes = 64 << 20

// Image implements the image conversion functions some wasi-nn hosts offer.
// The guest names a host file; the host decodes it, resizes it and writes
// tensor bytes into guest memory.
type Image struct {
	policy   *PathPolicy
	logger   *slog.Logger
	maxFile  int64
	order    ColorOrder
	layout   MemoryLayout
	readFile func(string) ([]byte, error)
}

// ImageOption configures an Image.
type ImageOption func(*Image)

// WithPathPolicy restricts which files the guest may name.
func WithPathPolicy(p *PathPolicy) ImageOption {
	return func(im *Image) {
		im.policy = p
	}
}

// WithColorOrder sets the channel order; BGR by default.
func WithColorOrder(o ColorOrder) ImageOption {
	return func(im *Image) {
		im.order = o
	}
}

// WithMemoryLayout sets the channel layout; interleaved by default.
func WithMemoryLayout(l MemoryLayout) ImageOption {
	return func(im *Image) {
		im.layout = l
	}
}

// WithMaxImageFileBytes bounds the size of files read.
func WithMaxImageFileBytes(n int64) ImageOption {
	return func(im *Image) {
		im.maxFile = n
	}
}

// WithImageLogger sets the logger for rejected requests.
func WithImageLogger(l *slog.Logger) ImageOption {
	return func(im *Image) {
		im.logger = l
	}
}

// NewImage creates the image functions. Without WithPathPolicy the guest
// may only name files below the host's working directory.
func NewImage(opts ...ImageOption) *Image {
	im := &Image{
		maxFile: DefaultMaxImageFileBytes,
		order:   ColorBGR,
		layout:  LayoutInterleaved,
	}
	for _, opt := range opts {
		opt(im)
	}
	if im.policy == nil {
		im.policy = NewPathPolicy([]string{"."})
	}
	if im.logger == nil {
		im.logger = slog.Default()
	}
	if im.readFile == nil {
		im.readFile = im.readLimited
	}
	return im
}

// Convert reads the file at path and converts it. It is the shared core of
// both guest entry points and of the CLI.
func (im *Image) Convert(path string, width, height uint32, precision entities.TensorType) ([]byte, error) {
	resolved, err := im.policy.Resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := im.readFile(resolved)
	if err != nil {
		return nil, err
	}
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return ImageToBytes(img, ConvertOptions{
		Width:     width,
		Height:    height,
		Precision: precision,
		Order:     im.order,
		Layout:    im.layout,
	})
}

func (im *Image) readLimited(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, WrapError(ErrnoNotFound, "opening image", err)
	}
	if fi.Size() > im.maxFile {
		return nil, Errorf(ErrnoTooLarge, "image file is %d bytes, limit %d", fi.Size(), im.maxFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapError(ErrnoNotFound, "reading image", err)
	}
	return data, nil
}

// ImageToTensor writes the converted image into the guest buffer.
func (im *Image) ImageToTensor(ctx context.Context, mem ports.Memory, pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax uint32) Errno {
	_, errno := im.convertInto(ctx, FuncImageToTensor, mem, pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax)
	return errno
}

// ConvertImage is ImageToTensor plus the byte count stored at outBytesWritten.
func (im *Image) ConvertImage(ctx context.Context, mem ports.Memory, pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax, outBytesWritten uint32) Errno {
	n, errno := im.convertInto(ctx, FuncConvertImage, mem, pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax)
	if errno != ErrnoSuccess {
		return errno
	}
	if !mem.WriteUint32Le(outBytesWritten, n) {
		return ErrnoInvalidArgument
	}
	return ErrnoSuccess
}

func (im *Image) convertInto(ctx context.Context, fn string, mem ports.Memory, pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax uint32) (uint32, Errno) {
	typ := entities.TensorType(precision)
	if !typ.Valid() {
		return 0, ErrnoInvalidArgument
	}
	if TensorByteSize(width, height, typ) > uint64(outBufferMax) {
		return 0, ErrnoTooLarge
	}
	raw, ok := mem.Read(pathPtr, pathLen)
	if !ok {
		return 0, ErrnoInvalidArgument
	}

	data, err := im.Convert(string(raw), width, height, typ)
	if err != nil {
		errno := ErrnoOf(err)
		im.logger.DebugContext(ctx, "image conversion rejected",
			slog.String("function", fn),
			slog.String("errno", errno.String()),
			slog.String("error", err.Error()))
		return 0, errno
	}
	if len(data) > 0 && !mem.Write(outBuffer, data) {
		return 0, ErrnoInvalidArgument
	}
	return uint32(len(data)), ErrnoSuccess
}

// Funcs describes both image functions for registration.
func (im *Image) Funcs() []Func {
	return []Func{
		{Name: FuncImageToTensor, Params: 7, Handler: func(ctx context.Context, mem ports.Memory, p []uint32) Errno {
			return im.ImageToTensor(ctx, mem, p[0], p[1], p[2], p[3], p[4], p[5], p[6])
		}},
		{Name: FuncConvertImage, Params: 8, Handler: func(ctx context.Context, mem ports.Memory, p []uint32) Errno {
			return im.ConvertImage(ctx, mem, p[0], p[1], p[2], p[3], p[4], p[5], p[6], p[7])
		}},
	}
}
