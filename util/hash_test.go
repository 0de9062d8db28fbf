package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/treeline-io/treeline/util"
)

func TestEncodeSha1Hex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", util.EncodeSha1Hex(nil))
	assert.Equal(t, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", util.EncodeSha1Hex([]byte("hello")))
}

func TestEncodeSha256Hex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", util.EncodeSha256Hex(nil))
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", util.EncodeSha256Hex([]byte("hello")))
}
