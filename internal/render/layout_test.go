package render

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

func newTestLayout(t *testing.T, bounds image.Rectangle) *Layout {
	t.Helper()
	l, err := NewLayout(bounds, Options{ImageDir: "testdata"})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, l.Close()) })
	return l
}

func testFace(t *testing.T, size float64) font.Face {
	t.Helper()
	f, err := opentype.Parse(goregular.TTF)
	require.NoError(t, err)
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72})
	require.NoError(t, err)
	t.Cleanup(func() { face.Close() })
	return face
}

func isDark(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < 128
}

func countDark(img image.Image, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if isDark(img.At(x, y)) {
				n++
			}
		}
	}
	return n
}

func TestLayout_Compose(t *testing.T) {
	bounds := image.Rect(0, 0, 400, 300)
	l := newTestLayout(t, bounds)

	frame, err := l.Compose(sampleRepo(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, bounds, frame.Bounds())

	// Title bar is white on black, the rest black on white.
	assert.True(t, isDark(frame.At(2, 2)))
	assert.False(t, isDark(frame.At(399, 299)))
	assert.Less(t, countDark(frame, l.title.inner()), l.title.inner().Dx()*l.title.inner().Dy())

	for i := range l.icons {
		assert.Positive(t, countDark(frame, l.iconBoxes[i].inner()), "icon %d drawn", i)
		assert.Positive(t, countDark(frame, l.countBoxes[i].inner()), "count %d drawn", i)
	}
	assert.Positive(t, countDark(frame, l.lastCommit.inner()))
	assert.Positive(t, countDark(frame, l.lastMessage.inner()))

	// Padding around the message block stays blank.
	edge := image.Rect(0, l.lastMessage.rect.Min.Y, l.lastMessage.padding, l.lastMessage.rect.Max.Y)
	assert.Zero(t, countDark(frame, edge))
}

func TestLayout_Compose_IsRepeatable(t *testing.T) {
	l := newTestLayout(t, image.Rect(0, 0, 250, 122))

	first, err := l.Compose(sampleRepo(), fixedNow)
	require.NoError(t, err)
	second, err := l.Compose(sampleRepo(), fixedNow)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLayout_Geometry(t *testing.T) {
	l := newTestLayout(t, image.Rect(0, 0, 400, 300))

	assert.Equal(t, image.Rect(0, 0, 400, 60), l.title.rect)
	assert.Equal(t, image.Rect(40, 60, 66, 105), l.iconBoxes[0].rect)
	assert.Equal(t, image.Rect(66, 60, 146, 105), l.countBoxes[0].rect)
	assert.Equal(t, image.Rect(0, 105, 400, 150), l.lastCommit.rect)
	assert.Equal(t, image.Rect(0, 150, 400, 300), l.lastMessage.rect)
}

func TestNewLayout_Errors(t *testing.T) {
	testCases := []struct {
		name           string
		bounds         image.Rectangle
		opts           Options
		expectedErrMsg string
	}{
		{
			name:           "empty bounds",
			bounds:         image.Rectangle{},
			opts:           Options{ImageDir: "testdata"},
			expectedErrMsg: "empty panel bounds",
		},
		{
			name:           "missing icons",
			bounds:         image.Rect(0, 0, 400, 300),
			opts:           Options{ImageDir: filepath.Join("testdata", "missing")},
			expectedErrMsg: "failed to open icon",
		},
		{
			name:           "missing font",
			bounds:         image.Rect(0, 0, 400, 300),
			opts:           Options{ImageDir: "testdata", FontPath: filepath.Join("testdata", "missing.ttf")},
			expectedErrMsg: "failed to read font",
		},
		{
			name:           "not a font",
			bounds:         image.Rect(0, 0, 400, 300),
			opts:           Options{ImageDir: "testdata", FontPath: filepath.Join("testdata", "star.png")},
			expectedErrMsg: "failed to parse font",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLayout(tc.bounds, tc.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErrMsg)
		})
	}
}

func TestWrap(t *testing.T) {
	face := testFace(t, 12)
	width := 200
	fits := func(s string) bool { return font.MeasureString(face, s).Ceil() <= width }

	t.Run("short text stays on one line", func(t *testing.T) {
		assert.Equal(t, []string{"@alice - Bump deps"}, wrap(face, "@alice - Bump deps", width, 6))
	})

	t.Run("blank lines are dropped", func(t *testing.T) {
		assert.Equal(t, []string{"Subject", "Body"}, wrap(face, "Subject\n\n\nBody", width, 6))
	})

	t.Run("long text wraps and is cut with an ellipsis", func(t *testing.T) {
		lines := wrap(face, strings.Repeat("lorem ipsum dolor sit amet ", 20), width, 3)
		require.Len(t, lines, 3)
		for _, line := range lines {
			assert.True(t, fits(line), "line %q too wide", line)
		}
		assert.True(t, strings.HasSuffix(lines[2], ellipsis))
	})

	t.Run("words wider than the block are split", func(t *testing.T) {
		word := strings.Repeat("x", 80)
		lines := wrap(face, word, width, 10)
		assert.Greater(t, len(lines), 1)
		assert.Equal(t, word, strings.Join(lines, ""))
		for _, line := range lines {
			assert.True(t, fits(line), "line %q too wide", line)
		}
	})
}
