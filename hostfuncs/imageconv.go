package hostfuncs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"math"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/x448/float16"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
)

// ColorOrder is the channel order of converted pixels.
type ColorOrder int

const (
	ColorBGR ColorOrder = iota
	ColorRGB
)

// MemoryLayout is the arrangement of channels in the converted buffer.
type MemoryLayout int

const (
	// LayoutInterleaved stores pixels as HWC.
	LayoutInterleaved MemoryLayout = iota
	// LayoutPlanar stores one full plane per channel (CHW).
	LayoutPlanar
)

// ConvertOptions selects the output format of ImageToBytes.
type ConvertOptions struct {
	Width     uint32
	Height    uint32
	Precision entities.TensorType
	Order     ColorOrder
	Layout    MemoryLayout
}

// TensorByteSize returns the bytes needed for a width x height, 3-channel
// image at the given precision, or 0 for an unknown precision.
func TensorByteSize(width, height uint32, precision entities.TensorType) uint64 {
	return uint64(width) * uint64(height) * 3 * uint64(precision.ByteWidth())
}

// DecodeImage decodes any registered image format.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, WrapError(ErrnoInvalidArgument, "decoding image", err)
	}
	return img, nil
}

// ImageToBytes resizes img exactly to the requested size and emits one
// element per channel value at the requested precision. Channel values keep
// their 0..255 range; no normalization is applied.
func ImageToBytes(img image.Image, opts ConvertOptions) ([]byte, error) {
	if opts.Width == 0 || opts.Height == 0 {
		return nil, Errorf(ErrnoInvalidArgument, "invalid size %dx%d", opts.Width, opts.Height)
	}
	width := opts.Precision.ByteWidth()
	if width == 0 {
		return nil, Errorf(ErrnoInvalidArgument, "unknown precision %d", uint32(opts.Precision))
	}
	if opts.Width > math.MaxInt32/opts.Height {
		return nil, Errorf(ErrnoTooLarge, "image size %dx%d overflows", opts.Width, opts.Height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, int(opts.Width), int(opts.Height)))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	channels := rgbChannels(dst, opts.Order, opts.Layout)

	out := make([]byte, len(channels)*width)
	for i, v := range channels {
		putElement(out[i*width:], v, opts.Precision)
	}
	return out, nil
}

// rgbChannels drops alpha and arranges the three color channels.
func rgbChannels(img *image.RGBA, order ColorOrder, layout MemoryLayout) []uint8 {
	pixels := len(img.Pix) / 4
	out := make([]uint8, pixels*3)
	for p := 0; p < pixels; p++ {
		r, g, b := img.Pix[4*p], img.Pix[4*p+1], img.Pix[4*p+2]
		if order == ColorBGR {
			r, b = b, r
		}
		if layout == LayoutPlanar {
			out[p] = r
			out[pixels+p] = g
			out[2*pixels+p] = b
		} else {
			out[3*p] = r
			out[3*p+1] = g
			out[3*p+2] = b
		}
	}
	return out
}

func putElement(dst []byte, v uint8, typ entities.TensorType) {
	switch typ {
	case entities.TensorU8:
		dst[0] = v
	case entities.TensorF16:
		binary.LittleEndian.PutUint16(dst, float16.Fromfloat32(float32(v)).Bits())
	case entities.TensorF32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
	case entities.TensorI32:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	default:
		panic(fmt.Sprintf("putElement: unsupported tensor type %d", uint32(typ)))
	}
}
