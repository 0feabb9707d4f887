// Package display writes composed frames to an e-paper panel.
package display

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sort"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
)

// ErrUnknownDevice is returned by LookupDevice for an unsupported model.
const ErrUnknownDevice = errors.Sentinel("unknown display device")

// Device describes a panel model.
type Device struct {
	Model  string
	Width  int
	Height int
}

// Bounds is the frame rectangle for the device.
func (d Device) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.Width, d.Height)
}

// Waveshare panels in landscape orientation.
var devices = map[string]Device{
	"epd2in13_V2": {Model: "epd2in13_V2", Width: 250, Height: 122},
	"epd2in7":     {Model: "epd2in7", Width: 264, Height: 176},
	"epd4in2":     {Model: "epd4in2", Width: 400, Height: 300},
	"epd4in2_V2":  {Model: "epd4in2_V2", Width: 400, Height: 300},
	"epd7in5_V2":  {Model: "epd7in5_V2", Width: 800, Height: 480},
}

// LookupDevice returns the device for a model identifier.
func LookupDevice(model string) (Device, error) {
	d, ok := devices[model]
	if !ok {
		return Device{}, errors.WithDetails(ErrUnknownDevice, "model", model)
	}
	return d, nil
}

// Models lists the supported device identifiers.
func Models() []string {
	models := make([]string, 0, len(devices))
	for m := range devices {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}


// FilePanel hands frames to the vendor refresh utility by replacing a
// 1-bit PNG on disk.
type FilePanel struct {
	device Device
	path   string
	logger logrus.FieldLogger
}

// NewFilePanel creates a FilePanel for device writing to path.
func NewFilePanel(device Device, path string, logger logrus.FieldLogger) (*FilePanel, error) {
	if path == "" {
		return nil, errors.New("output path must be set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}
	return &FilePanel{device: device, path: path, logger: logger}, nil
}

// Bounds is the panel resolution.
func (p *FilePanel) Bounds() image.Rectangle {
	return p.device.Bounds()
}

// Write converts frame to black and white and atomically replaces the output file.
func (p *FilePanel) Write(ctx context.Context, frame image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if frame.Bounds() != p.Bounds() {
		return errors.Errorf("frame is %v, %s expects %v", frame.Bounds(), p.device.Model, p.Bounds())
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".frame-*.png")
	if err != nil {
		return errors.Wrap(err, "failed to create frame file")
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, Monochrome(frame)); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to encode frame")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to flush frame")
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return errors.Wrap(err, "failed to publish frame")
	}

	p.logger.WithFields(logrus.Fields{
		"device": p.device.Model,
		"path":   p.path,
	}).Debug("frame written to panel")
	return nil
}

var monochrome = color.Palette{color.White, color.Black}

// Monochrome thresholds img to the two colours an e-paper panel can show.
func Monochrome(img image.Image) *image.Paletted {
	out := image.NewPaletted(img.Bounds(), monochrome)
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
