package render

import (
	"image"
	"image/color"
	"image/draw"
	_ "image/png" // icon assets
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"emperror.dev/errors"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/naka-gawa/nestbox/internal/domain"
)

// Icon file names looked up in Options.ImageDir.
const (
	IssueIcon       = "issue.png"
	PullRequestIcon = "pr.png"
	StarIcon        = "star.png"
)

// DefaultMaxLines caps the commit message block.
const DefaultMaxLines = 6

const minFontSize = 6

// Options configures NewLayout.
type Options struct {
	// FontPath selects a TrueType/OpenType font or collection. Empty uses Go Regular.
	FontPath string
	ImageDir string
	MaxLines int
}

// box is one block of the layout, in panel pixels.
type box struct {
	rect    image.Rectangle
	padding int
}

func (b box) inner() image.Rectangle {
	return b.rect.Inset(b.padding)
}

// Layout is the render context for one panel: fixed geometry, a parsed
// font and decoded icons. It caches font faces, so it must not be shared
// between goroutines.
type Layout struct {
	bounds   image.Rectangle
	font     *opentype.Font
	icons    [3]image.Image
	maxLines int
	faces    map[float64]font.Face

	title       box
	iconBoxes   [3]box
	countBoxes  [3]box
	lastCommit  box
	lastMessage box
}

// NewLayout loads the font and icons and computes the block geometry for a panel of the given bounds.
func NewLayout(bounds image.Rectangle, opts Options) (*Layout, error) {
	if bounds.Empty() {
		return nil, errors.Errorf("empty panel bounds %v", bounds)
	}
	f, err := loadFont(opts.FontPath)
	if err != nil {
		return nil, err
	}

	l := &Layout{
		bounds:   bounds,
		font:     f,
		maxLines: opts.MaxLines,
		faces:    make(map[float64]font.Face),
	}
	if l.maxLines <= 0 {
		l.maxLines = DefaultMaxLines
	}
	for i, name := range []string{IssueIcon, PullRequestIcon, StarIcon} {
		icon, err := loadIcon(filepath.Join(opts.ImageDir, name))
		if err != nil {
			return nil, err
		}
		l.icons[i] = icon
	}
	l.place()
	return l, nil
}

// place splits the panel into a 20% title bar, a 15% stats row, a 15%
// last commit line and the remainder for the commit message.
func (l *Layout) place() {
	w, h := l.bounds.Dx(), l.bounds.Dy()
	origin := l.bounds.Min
	row := func(y0, y1 int) image.Rectangle {
		return image.Rect(0, y0, w, y1).Add(origin)
	}

	titleH := h * 20 / 100
	statsH := h * 15 / 100
	commitH := h * 15 / 100

	l.title = box{rect: row(0, titleH), padding: 10}

	y0, y1 := titleH, titleH+statsH
	x := w / 10
	iconW, countW := w/15, w/5
	iconPad := []int{3, 5, 5}
	countPad := []int{2, 5, 5}
	for i := range l.icons {
		l.iconBoxes[i] = box{rect: image.Rect(x, y0, x+iconW, y1).Add(origin), padding: iconPad[i]}
		x += iconW
		l.countBoxes[i] = box{rect: image.Rect(x, y0, x+countW, y1).Add(origin), padding: countPad[i]}
		x += countW
	}

	l.lastCommit = box{rect: row(y1, y1+commitH), padding: 10}
	l.lastMessage = box{rect: row(y1+commitH, h), padding: 10}
}

// Compose draws repo onto a new greyscale frame.
func (l *Layout) Compose(repo domain.RepoSummary, now time.Time) (image.Image, error) {
	c := NewContents(repo, now)
	frame := image.NewGray(l.bounds)
	draw.Draw(frame, frame.Bounds(), image.White, image.Point{}, draw.Src)

	draw.Draw(frame, l.title.rect, image.Black, image.Point{}, draw.Src)
	if err := l.drawLine(frame, l.title, c.Title, color.White, true); err != nil {
		return nil, errors.Wrap(err, "title")
	}

	counts := []string{c.IssueCount, c.PullRequestCount, c.StarCount}
	for i := range l.icons {
		drawIcon(frame, l.iconBoxes[i].inner(), l.icons[i])
		if err := l.drawLine(frame, l.countBoxes[i], counts[i], color.Black, false); err != nil {
			return nil, errors.Wrap(err, "stats")
		}
	}

	if err := l.drawLine(frame, l.lastCommit, c.LastCommit, color.Black, false); err != nil {
		return nil, errors.Wrap(err, "last commit")
	}
	if err := l.drawParagraph(frame, l.lastMessage, c.Message); err != nil {
		return nil, errors.Wrap(err, "last commit message")
	}
	return frame, nil
}

// Close releases the cached font faces.
func (l *Layout) Close() error {
	var errs []error
	for size, face := range l.faces {
		errs = append(errs, face.Close())
		delete(l.faces, size)
	}
	return errors.Combine(errs...)
}

func (l *Layout) face(size float64) (font.Face, error) {
	if face, ok := l.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(l.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %vpt face", size)
	}
	l.faces[size] = face
	return face, nil
}

// fitFace returns the largest face, at most maxHeight pixels tall, in
// which every one of texts is at most maxWidth pixels wide.
func (l *Layout) fitFace(maxWidth, maxHeight int, texts ...string) (font.Face, error) {
	var face font.Face
	for size := float64(maxHeight); size >= minFontSize; size-- {
		var err error
		face, err = l.face(size)
		if err != nil {
			return nil, err
		}
		if lineHeight(face) > maxHeight {
			continue
		}
		fits := true
		for _, s := range texts {
			if font.MeasureString(face, s).Ceil() > maxWidth {
				fits = false
				break
			}
		}
		if fits {
			return face, nil
		}
	}
	if face == nil {
		return l.face(minFontSize)
	}
	return face, nil
}

// lineHeight is the vertical space one line of face needs, line gap included.
func lineHeight(face font.Face) int {
	m := face.Metrics()
	return max(m.Height.Ceil(), (m.Ascent + m.Descent).Ceil())
}

// drawLine writes s on one line, vertically centred in b.
func (l *Layout) drawLine(dst draw.Image, b box, s string, fg color.Color, hcenter bool) error {
	r := b.inner()
	face, err := l.fitFace(r.Dx(), r.Dy(), s)
	if err != nil {
		return err
	}
	m := face.Metrics()
	x := r.Min.X
	if hcenter {
		x += (r.Dx() - font.MeasureString(face, s).Ceil()) / 2
	}
	textHeight := (m.Ascent + m.Descent).Ceil()
	baseline := r.Min.Y + (r.Dy()-textHeight)/2 + m.Ascent.Ceil()

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
	return nil
}

// drawParagraph word-wraps s into b, using at most l.maxLines lines.
func (l *Layout) drawParagraph(dst draw.Image, b box, s string) error {
	r := b.inner()
	face, err := l.fitFace(r.Dx(), r.Dy()/l.maxLines)
	if err != nil {
		return err
	}
	lines := wrap(face, s, r.Dx(), l.maxLines)

	ascent := face.Metrics().Ascent.Ceil()
	step := lineHeight(face)
	d := &font.Drawer{Dst: dst, Src: image.Black, Face: face}
	for i, line := range lines {
		d.Dot = fixed.P(r.Min.X, r.Min.Y+ascent+i*step)
		d.DrawString(line)
	}
	return nil
}

const ellipsis = "…"

// wrap breaks s into lines no wider than width. Blank lines are dropped
// and the last kept line ends in an ellipsis when text was cut off.
func wrap(face font.Face, s string, width, maxLines int) []string {
	fits := func(line string) bool {
		return font.MeasureString(face, line).Ceil() <= width
	}

	var lines []string
	for _, paragraph := range strings.Split(s, "\n") {
		line := ""
		for _, word := range strings.Fields(paragraph) {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if fits(candidate) {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
			}
			for !fits(word) {
				head := splitToWidth(word, fits)
				lines = append(lines, head)
				word = word[len(head):]
			}
			line = word
		}
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) <= maxLines {
		return lines
	}
	lines = lines[:maxLines]
	last := lines[maxLines-1]
	for last != "" && !fits(last+ellipsis) {
		_, size := utf8.DecodeLastRuneInString(last)
		last = last[:len(last)-size]
	}
	lines[maxLines-1] = strings.TrimRight(last, " ") + ellipsis
	return lines
}

// splitToWidth returns the longest prefix of word that fits, at least one rune.
func splitToWidth(word string, fits func(string) bool) string {
	end := 0
	for i := range word {
		_, size := utf8.DecodeRuneInString(word[i:])
		next := i + size
		if end > 0 && !fits(word[:next]) {
			break
		}
		end = next
	}
	return word[:end]
}

// drawIcon scales icon into r, keeping its aspect ratio, centred.
func drawIcon(dst draw.Image, r image.Rectangle, icon image.Image) {
	src := icon.Bounds()
	if r.Empty() || src.Empty() {
		return
	}
	w, h := r.Dx(), r.Dx()*src.Dy()/src.Dx()
	if h > r.Dy() {
		w, h = r.Dy()*src.Dx()/src.Dy(), r.Dy()
	}
	at := r.Min.Add(image.Pt((r.Dx()-w)/2, (r.Dy()-h)/2))
	xdraw.CatmullRom.Scale(dst, image.Rectangle{Min: at, Max: at.Add(image.Pt(w, h))}, icon, src, xdraw.Over, nil)
}

func loadFont(path string) (*opentype.Font, error) {
	if path == "" {
		f, err := opentype.Parse(goregular.TTF)
		return f, errors.Wrap(err, "failed to parse built-in font")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read font")
	}
	if strings.EqualFold(filepath.Ext(path), ".ttc") {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse font collection %s", path)
		}
		f, err := coll.Font(0)
		return f, errors.Wrapf(err, "failed to load first font of %s", path)
	}
	f, err := opentype.Parse(data)
	return f, errors.Wrapf(err, "failed to parse font %s", path)
}

func loadIcon(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open icon")
	}
	defer file.Close()

	icon, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode icon %s", path)
	}
	return icon, nil
}
