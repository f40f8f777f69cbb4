package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForwarders_ComputeModule(t *testing.T) {
	got := Forwarders(NNImport("compute", 1)).Bytes()

	assert.Equal(t, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}, got[:8])
	// One (i32) -> i32 type per import and per forwarder.
	assert.Equal(t, []byte{0x01, 0x0b, 0x02, 0x60, 0x01, 0x7f, 0x01, 0x7f, 0x60, 0x01, 0x7f, 0x01, 0x7f}, got[8:21])
	assert.Equal(t, []byte{0x05, 0x03, 0x01, 0x00, 0x01}, got[len(got)-37:len(got)-32])
	assert.Equal(t, []byte{0x0a, 0x08, 0x01, 0x06, 0x00, 0x20, 0x00, 0x10, 0x00, 0x0b}, got[len(got)-10:])
}

func TestSleb(t *testing.T) {
	assert.Equal(t, []byte{0x41, 0x05}, I32Const(5))
	assert.Equal(t, []byte{0x41, 0x7f}, I32Const(-1))
	assert.Equal(t, []byte{0x41, 0xc0, 0x00}, I32Const(64))
	assert.Equal(t, []byte{0x41, 0x80, 0x01}, I32Const(128))
}
