package display

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupDevice(t *testing.T) {
	testCases := []struct {
		model       string
		expected    image.Rectangle
		expectError bool
	}{
		{model: "epd4in2_V2", expected: image.Rect(0, 0, 400, 300)},
		{model: "epd2in13_V2", expected: image.Rect(0, 0, 250, 122)},
		{model: "epd7in5_V2", expected: image.Rect(0, 0, 800, 480)},
		{model: "crt", expectError: true},
	}
	for _, tc := range testCases {
		t.Run(tc.model, func(t *testing.T) {
			d, err := LookupDevice(tc.model)
			if tc.expectError {
				assert.ErrorIs(t, err, ErrUnknownDevice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.model, d.Model)
			assert.Equal(t, tc.expected, d.Bounds())
		})
	}
}

func TestModels(t *testing.T) {
	models := Models()
	assert.Contains(t, models, "epd4in2_V2")
	assert.IsIncreasing(t, models)
}

func TestMonochrome(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 1))
	for x, y := range []uint8{0, 100, 160, 255} {
		src.SetGray(x, 0, color.Gray{Y: y})
	}

	out := Monochrome(src)

	assert.Equal(t, []uint8{1, 1, 0, 0}, out.Pix)
}

func TestFilePanel_Write(t *testing.T) {
	device, err := LookupDevice("epd2in13_V2")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "out", "frame.png")
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	panel, err := NewFilePanel(device, path, logger)
	require.NoError(t, err)

	frame := image.NewGray(device.Bounds())
	frame.SetGray(0, 0, color.Gray{Y: 255})
	require.NoError(t, panel.Write(context.Background(), frame))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	written, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, device.Bounds(), written.Bounds())

	r, _, _, _ := written.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	r, _, _, _ = written.At(1, 0).RGBA()
	assert.Equal(t, uint32(0), r)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, path, hook.LastEntry().Data["path"])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestFilePanel_Write_Errors(t *testing.T) {
	device, err := LookupDevice("epd4in2_V2")
	require.NoError(t, err)
	panel, err := NewFilePanel(device, filepath.Join(t.TempDir(), "frame.png"), logrus.New())
	require.NoError(t, err)

	err = panel.Write(context.Background(), image.NewGray(image.Rect(0, 0, 10, 10)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "epd4in2_V2 expects")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, panel.Write(ctx, image.NewGray(device.Bounds())), context.Canceled)
}

func TestNewFilePanel_EmptyPath(t *testing.T) {
	_, err := NewFilePanel(Device{Model: "x", Width: 1, Height: 1}, "", logrus.New())
	assert.Error(t, err)
}
