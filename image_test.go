package wasinn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wasinn "github.com/wasinn-dev/wasinn-sdk"
	"github.com/wasinn-dev/wasinn-sdk/backend/echo"
	nnerrors "github.com/wasinn-dev/wasinn-sdk/domain/errors"
	"github.com/wasinn-dev/wasinn-sdk/hostfuncs"
	"github.com/wasinn-dev/wasinn-sdk/nntest"
)

func TestConvertImage_ReturnsWrittenPrefix(t *testing.T) {
	host := nntest.New(nntest.WithImageData([]byte{1, 2, 3, 4, 5, 6}))
	c := host.Client()

	buf := make([]byte, 16)
	got, err := c.ConvertImage(wasinn.ImageRequest{Path: "images/0.jpg", Width: 224, Height: 224, Precision: wasinn.TensorF32}, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, got)

	images := host.Images()
	require.Len(t, images, 1)
	assert.Equal(t, nntest.ImageRecord{Path: "images/0.jpg", Width: 224, Height: 224, Precision: 1, BufferMax: 16}, images[0])
}

func TestImageToTensor_ReturnsWholeBuffer(t *testing.T) {
	host := nntest.New(nntest.WithImageData([]byte{7, 7}))
	buf := make([]byte, 5)

	got, err := host.Client().ImageToTensor(wasinn.ImageRequest{Path: "a.png", Width: 1, Height: 1, Precision: wasinn.TensorU8}, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 7, 0, 0, 0}, got)
	assert.Len(t, host.Calls()[0].Params, 7)
}

func TestImageRequest_Validate(t *testing.T) {
	tests := []struct {
		name  string
		req   wasinn.ImageRequest
		field string
	}{
		{"missing path", wasinn.ImageRequest{Width: 1, Height: 1}, "Path"},
		{"zero width", wasinn.ImageRequest{Path: "a", Height: 1}, "Width"},
		{"zero height", wasinn.ImageRequest{Path: "a", Width: 1}, "Height"},
		{"bad precision", wasinn.ImageRequest{Path: "a", Width: 1, Height: 1, Precision: 9}, "Precision"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			require.Error(t, err)

			var cfgErr *nnerrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	assert.NoError(t, wasinn.ImageRequest{Path: "a", Width: 1, Height: 1, Precision: wasinn.TensorU8}.Validate())
}

func TestImageRequest_MalformedReachesHost(t *testing.T) {
	host := nntest.New(nntest.WithStatus(wasinn.OpImageToTensor, 1))

	_, err := host.Client().ImageToTensor(wasinn.ImageRequest{}, make([]byte, 4))

	var callErr *wasinn.HostCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, wasinn.OpImageToTensor, callErr.Operation)
	assert.Equal(t, uint32(1), callErr.Code)
	require.Len(t, host.Calls(), 1)
	assert.Equal(t, []uint32{0, 0}, host.Calls()[0].Params[2:4], "width and height are forwarded as given")
}

func TestConvertImage_HostRejectsPrecision(t *testing.T) {
	lb := nntest.NewLoopback(hostfuncs.NewNN(echo.New()), hostfuncs.NewImage())

	_, err := lb.Client().ConvertImage(wasinn.ImageRequest{Path: "a.png", Width: 1, Height: 1, Precision: 9}, make([]byte, 16))

	var callErr *wasinn.HostCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, wasinn.OpConvertImage, callErr.Operation)
	assert.Equal(t, uint32(hostfuncs.ErrnoInvalidArgument), callErr.Code)
}
