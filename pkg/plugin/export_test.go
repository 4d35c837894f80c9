package plugin

import (
	"errors"
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"imgproc.szuro.net/pkg/pixel"
)

func cstr(s string) unsafe.Pointer {
	b := append([]byte(s), 0)
	return unsafe.Pointer(&b[0])
}

// invert is a minimal Filter used to observe what Process hands over.
type invert struct {
	gotParams string
	gotLen    int
}

func (f *invert) Apply(img *pixel.View, params string) error {
	f.gotParams = params
	f.gotLen = len(img.Pix)
	for i := range img.Pix {
		img.Pix[i] = 255 - img.Pix[i]
	}
	return nil
}

func TestProcessSuccess(t *testing.T) {
	pix := []byte{0, 10, 20, 30, 40, 50, 60, 70}
	f := &invert{}

	status := Process(2, 1, unsafe.Pointer(&pix[0]), cstr(`{"x": 1}`), f)
	require.Equal(t, StatusOK, status)
	require.Equal(t, `{"x": 1}`, f.gotParams)
	require.Equal(t, 8, f.gotLen)
	require.Equal(t, []byte{255, 245, 235, 225, 215, 205, 195, 185}, pix)
}

func TestProcessNullParams(t *testing.T) {
	pix := []byte{1, 2, 3, 4}
	f := &invert{gotParams: "unset"}
	require.Equal(t, StatusOK, Process(1, 1, unsafe.Pointer(&pix[0]), nil, f))
	require.Equal(t, "", f.gotParams)
}

func TestProcessNullPixels(t *testing.T) {
	f := &invert{}
	require.Equal(t, StatusNullPointer, Process(1, 1, nil, nil, f))
	require.Zero(t, f.gotLen)
}

func TestProcessOverflow(t *testing.T) {
	pix := []byte{1, 2, 3, 4}
	f := &invert{}

	status := Process(math.MaxUint32/2, 1, unsafe.Pointer(&pix[0]), nil, f)
	require.Equal(t, StatusOverflow, status)
	require.Equal(t, []byte{1, 2, 3, 4}, pix)
	require.Zero(t, f.gotLen)
}

func TestProcessFilterErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int32
	}{
		{"Parameters", ErrParameter, StatusBadParams},
		{"Wrapped parameters", errors.Join(errors.New("radius"), ErrParameter), StatusBadParams},
		{"Overflow", pixel.ErrOverflow, StatusOverflow},
		{"Other", errors.New("boom"), StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pix := []byte{1, 2, 3, 4}
			f := FilterFunc(func(*pixel.View, string) error { return tt.err })
			require.Equal(t, tt.expected, Process(1, 1, unsafe.Pointer(&pix[0]), nil, f))
		})
	}
}

func TestProcessRecoversPanic(t *testing.T) {
	pix := []byte{1, 2, 3, 4}
	f := FilterFunc(func(img *pixel.View, _ string) error {
		_ = img.Pix[100]
		return nil
	})
	require.Equal(t, StatusPanic, Process(1, 1, unsafe.Pointer(&pix[0]), nil, f))
}

func TestStatusError(t *testing.T) {
	require.NoError(t, ErrorFor(StatusOK))
	require.NoError(t, ErrorFor(3))

	err := ErrorFor(StatusBadParams)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StatusBadParams, se.Status)
	require.ErrorIs(t, err, ErrParameter)
	require.ErrorIs(t, ErrorFor(StatusOverflow), pixel.ErrOverflow)
	require.ErrorIs(t, ErrorFor(StatusNullPointer), ErrNullPointer)
	require.NotErrorIs(t, ErrorFor(-42), ErrParameter)
	require.Contains(t, ErrorFor(-42).Error(), "status -42")
}
