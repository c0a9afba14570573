package storage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestDetectImage(t *testing.T) {
	ext, err := DetectImage(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)

	_, err = DetectImage([]byte("%PDF-1.4 not an image"))
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = DetectImage(nil)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestReadLimited(t *testing.T) {
	data, err := ReadLimited(bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	_, err = ReadLimited(bytes.NewReader(make([]byte, MaxProofBytes+1)))
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestObjectPathAndURL(t *testing.T) {
	p := ObjectPath("../evil/uid", "a.png")
	assert.Equal(t, "payments/__evil_uid/a.png", p)
	assert.Equal(t,
		"https://firebasestorage.googleapis.com/v0/b/krizo.appspot.com/o/payments%2Fu1%2Fa.png?alt=media&token=tok",
		DownloadURL("krizo.appspot.com", "payments/u1/a.png", "tok"))
}
