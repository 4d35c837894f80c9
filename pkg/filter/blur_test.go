package filter

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"imgproc.szuro.net/pkg/pixel"
	"imgproc.szuro.net/pkg/plugin"
)

func randomPixels(t *testing.T, width, height uint32, seed int64) []byte {
	t.Helper()
	n, err := pixel.ByteLen(width, height)
	require.NoError(t, err)
	pix := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(pix)
	return pix
}

func TestBoxBlurThreePixelColumn(t *testing.T) {
	pix := []byte{
		255, 0, 0, 255,
		0, 255, 0, 255,
		0, 0, 255, 255,
	}
	expected := []byte{
		85, 85, 85, 255,
		85, 85, 85, 255,
		85, 85, 85, 255,
	}

	require.NoError(t, BoxBlur(pix, 1, 3, 2, 1))
	require.Equal(t, expected, pix)
}

func TestBoxBlurRadiusZeroIsIdentity(t *testing.T) {
	for _, iterations := range []uint{0, 1, 3} {
		pix := randomPixels(t, 7, 5, int64(iterations))
		original := append([]byte(nil), pix...)

		require.NoError(t, BoxBlur(pix, 7, 5, 0, iterations))
		require.Equal(t, original, pix, "iterations=%d", iterations)
	}
}

func TestBoxBlurZeroIterationsIsNoop(t *testing.T) {
	pix := randomPixels(t, 4, 4, 1)
	original := append([]byte(nil), pix...)

	require.NoError(t, BoxBlur(pix, 4, 4, 3, 0))
	require.Equal(t, original, pix)
}

func TestBoxBlurEdgesAreOmitted(t *testing.T) {
	// 3x1 row: corner pixels average two neighbours, the middle one three.
	pix := []byte{
		30, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
	}
	require.NoError(t, BoxBlur(pix, 3, 1, 1, 1))
	require.Equal(t, []byte{15, 0, 0, 0, 10, 0, 0, 0, 0, 0, 0, 0}, pix)
}

func TestBoxBlurTruncates(t *testing.T) {
	pix := []byte{
		1, 2, 0, 0,
		0, 0, 0, 0,
	}
	require.NoError(t, BoxBlur(pix, 2, 1, 1, 1))
	require.Equal(t, []byte{0, 1, 0, 0, 0, 1, 0, 0}, pix)
}

func TestBoxBlurIterationsReadPreviousPass(t *testing.T) {
	pix := []byte{
		90, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
	}
	// pass 1: [45, 30, 0]; pass 2: [37, 25, 15]
	require.NoError(t, BoxBlur(pix, 3, 1, 1, 2))
	require.Equal(t, []byte{37, 0, 0, 0, 25, 0, 0, 0, 15, 0, 0, 0}, pix)
}

func TestBoxBlurChannelIndependence(t *testing.T) {
	const w, h = 6, 4
	pix := randomPixels(t, w, h, 7)

	// rotate channels RGBA -> GBAR
	permuted := make([]byte, len(pix))
	for i := 0; i < len(pix); i += 4 {
		permuted[i], permuted[i+1], permuted[i+2], permuted[i+3] = pix[i+1], pix[i+2], pix[i+3], pix[i]
	}

	require.NoError(t, BoxBlur(pix, w, h, 2, 2))
	require.NoError(t, BoxBlur(permuted, w, h, 2, 2))

	for i := 0; i < len(pix); i += 4 {
		require.Equal(t, []byte{pix[i+1], pix[i+2], pix[i+3], pix[i]}, permuted[i:i+4])
	}
}

func TestBoxBlurHugeRadiusAveragesEverything(t *testing.T) {
	pix := []byte{
		10, 20, 30, 40,
		20, 30, 40, 50,
		30, 40, 50, 60,
		40, 50, 60, 70,
	}
	require.NoError(t, BoxBlur(pix, 2, 2, math.MaxUint32, 1))
	for i := 0; i < len(pix); i += 4 {
		require.Equal(t, []byte{25, 35, 45, 55}, pix[i:i+4])
	}
}

func TestBoxBlurZeroArea(t *testing.T) {
	require.NoError(t, BoxBlur(nil, 0, 10, 3, 2))
	require.NoError(t, BoxBlur([]byte{}, 10, 0, 3, 2))
}

func TestBoxBlurOverflow(t *testing.T) {
	pix := []byte{1, 2, 3, 4}
	err := BoxBlur(pix, math.MaxUint32/2, 1, 1, 1)
	require.ErrorIs(t, err, pixel.ErrOverflow)
	require.Equal(t, []byte{1, 2, 3, 4}, pix)
}

func TestBoxBlurSizeMismatch(t *testing.T) {
	pix := []byte{1, 2, 3, 4}
	err := BoxBlur(pix, 2, 1, 1, 1)
	require.ErrorIs(t, err, pixel.ErrSizeMismatch)
	require.Equal(t, []byte{1, 2, 3, 4}, pix)
}

func TestBlurApply(t *testing.T) {
	tests := []struct {
		name   string
		params string
		err    error
	}{
		{"Valid", `{"radius": 2, "iterations": 1}`, nil},
		{"Missing iterations", `{"radius": 2}`, plugin.ErrParameter},
		{"Missing radius", `{"iterations": 2}`, plugin.ErrParameter},
		{"Negative radius", `{"radius": -1, "iterations": 1}`, plugin.ErrParameter},
		{"Unknown field", `{"radius": 1, "iterations": 1, "sigma": 2}`, plugin.ErrParameter},
		{"Syntax error", `{"radius": 1,`, plugin.ErrParameter},
		{"No parameters", ``, plugin.ErrParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pix := []byte{255, 0, 0, 255, 0, 255, 0, 255, 0, 0, 255, 255}
			img, err := pixel.Foreign(1, 3, pix)
			require.NoError(t, err)

			err = Blur{}.Apply(img, tt.params)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, []byte{85, 85, 85, 255, 85, 85, 85, 255, 85, 85, 85, 255}, pix)
		})
	}
}
