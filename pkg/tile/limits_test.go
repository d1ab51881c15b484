package tile

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hugePNG encodes a 1x1 PNG and rewrites its header to claim w by h pixels.
func hugePNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 1, 1))))

	data := buf.Bytes()
	require.Equal(t, "IHDR", string(data[12:16]))
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestParamsCheckLimit(t *testing.T) {
	testCases := []struct {
		name      string
		params    Params
		maxPixels int64
		tooLarge  bool
	}{
		{"within limit", Params{Grid{2, 2}, Size{128, 64}, false}, DefaultMaxPixels, false},
		{"exactly at limit", Params{Grid{1, 1}, Size{10000, 10000}, false}, DefaultMaxPixels, false},
		{"single tile too large", Params{Grid{1, 1}, Size{12000, 12000}, false}, DefaultMaxPixels, true},
		{"sheet too large", Params{Grid{100, 100}, Size{1000, 1000}, false}, DefaultMaxPixels, true},
		{"product overflows int", Params{Grid{math.MaxInt32, math.MaxInt32}, Size{math.MaxInt32, math.MaxInt32}, false}, DefaultMaxPixels, true},
		{"limit disabled", Params{Grid{100, 100}, Size{1000, 1000}, false}, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.CheckLimit(tc.maxPixels)
			if tc.tooLarge {
				assert.True(t, Is(err, ErrCodeTooLarge), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckSource(t *testing.T) {
	var small bytes.Buffer
	require.NoError(t, Encode(&small, solidSheet(64, 32)))
	assert.NoError(t, CheckSource(bytes.NewReader(small.Bytes()), DefaultMaxPixels))

	err := CheckSource(bytes.NewReader(hugePNG(t, 50000, 50000)), DefaultMaxPixels)
	assert.True(t, Is(err, ErrCodeTooLarge), "got %v", err)
	assert.ErrorContains(t, err, "50000x50000")

	err = CheckSource(bytes.NewReader([]byte("not an image")), DefaultMaxPixels)
	assert.True(t, Is(err, ErrCodeIO), "got %v", err)

	assert.NoError(t, CheckSource(bytes.NewReader([]byte("not an image")), 0), "disabled check reads nothing")
}
