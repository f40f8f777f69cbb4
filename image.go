package wasinn

import (
	"fmt"
	"log/slog"
)

// ImageRequest describes an image the host should decode, resize and convert
// into tensor bytes. The path is resolved by the host. Requests are passed
// through as given; malformed ones come back as a HostCallError. Call Validate
// to catch them before the host does.
type ImageRequest struct {
	Path      string     `validate:"required"`
	Width     uint32     `validate:"gt=0"`
	Height    uint32     `validate:"gt=0"`
	Precision TensorType `validate:"tensortype"`
}

// Validate checks the request locally and reports the first bad field as a
// *errors.ConfigError.
func (r ImageRequest) Validate() error {
	return validateStruct(r)
}

// ImageToTensor asks the host to write the converted image into buf. This
// variant has no bytes-written out-parameter, so the whole buf is returned.
func (c *Client) ImageToTensor(req ImageRequest, buf []byte) ([]byte, error) {
	if c.image == nil {
		return nil, fmt.Errorf("%s: host offers no image conversion", OpImageToTensor)
	}

	a := c.newArena()
	defer a.Release()

	path := []byte(req.Path)
	pathPtr, err := a.Place(path)
	if err != nil {
		return nil, fmt.Errorf("placing image path: %w", err)
	}
	bufPtr, err := a.Place(buf)
	if err != nil {
		return nil, fmt.Errorf("placing image buffer: %w", err)
	}

	code := c.image.ImageToTensor(pathPtr, uint32(len(path)), req.Width, req.Height, uint32(req.Precision), bufPtr, uint32(len(buf)))
	if err := c.check(OpImageToTensor, code, slog.String("path", req.Path)); err != nil {
		return nil, err
	}
	return buf, nil
}

// ConvertImage is ImageToTensor with a host-reported byte count; the
// returned slice is the written prefix of buf.
func (c *Client) ConvertImage(req ImageRequest, buf []byte) ([]byte, error) {
	if c.image == nil {
		return nil, fmt.Errorf("%s: host offers no image conversion", OpConvertImage)
	}

	n, err := c.convertImage(req, buf)
	if err != nil {
		return nil, err
	}
	if int(n) > len(buf) {
		n = uint32(len(buf))
	}
	return buf[:n], nil
}

func (c *Client) convertImage(req ImageRequest, buf []byte) (uint32, error) {
	a := c.newArena()
	defer a.Release()

	path := []byte(req.Path)
	pathPtr, err := a.Place(path)
	if err != nil {
		return 0, fmt.Errorf("placing image path: %w", err)
	}
	bufPtr, err := a.Place(buf)
	if err != nil {
		return 0, fmt.Errorf("placing image buffer: %w", err)
	}
	cell, err := a.Cell()
	if err != nil {
		return 0, fmt.Errorf("reserving bytes-written cell: %w", err)
	}

	code := c.image.ConvertImage(pathPtr, uint32(len(path)), req.Width, req.Height, uint32(req.Precision), bufPtr, uint32(len(buf)), cell)
	if err := c.check(OpConvertImage, code, slog.String("path", req.Path)); err != nil {
		return 0, err
	}
	return a.Uint32(cell)
}
