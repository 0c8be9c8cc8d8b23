// Package normalize prepares media on the producing side before upload:
// images are downsampled and re-encoded as JPEG, videos are cut and
// transcoded to H.264 through one shared engine.
package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

const (
	MimeJPEG = "image/jpeg"
	MimeMP4  = "video/mp4"

	maxQualitySteps = 8
)

var ErrEmptyInput = errors.New("empty input")

type ImageOptions struct {
	MaxSizeMB        float64
	MaxWidthOrHeight int
	// Qualities are JPEG quality percentages, stepped down by QualityStep.
	InitialQuality int
	QualityStep    int
	MinQuality     int
}

func DefaultImageOptions() ImageOptions {
	return ImageOptions{
		MaxSizeMB:        0.2,
		MaxWidthOrHeight: 1920,
		InitialQuality:   80,
		QualityStep:      10,
		MinQuality:       10,
	}
}

// Result is a normalized file ready for upload.
type Result struct {
	Data     []byte
	Name     string
	MimeType string
	// Quality and Attempts are only set for images.
	Quality  int
	Attempts int
}

func CompressImage(data []byte, name string, opts ImageOptions) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", name, err)
	}

	img = correctOrientation(img, exifOrientation(data))

	if limit := opts.MaxWidthOrHeight; limit > 0 {
		b := img.Bounds()
		if b.Dx() > limit || b.Dy() > limit {
			img = imaging.Fit(img, limit, limit, imaging.Lanczos)
		}
	}

	target := int(opts.MaxSizeMB * 1024 * 1024)
	quality := opts.InitialQuality

	var out []byte
	attempts := 0
	for {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("failed to encode image %s: %w", name, err)
		}
		out = buf.Bytes()
		attempts++

		if len(out) <= target || attempts >= maxQualitySteps || quality-opts.QualityStep < opts.MinQuality {
			break
		}
		quality -= opts.QualityStep
	}

	if format == "jpeg" && len(out) > len(data) {
		out = data
	}

	return &Result{
		Data:     out,
		Name:     jpegName(name),
		MimeType: MimeJPEG,
		Quality:  quality,
		Attempts: attempts,
	}, nil
}

func exifOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

func correctOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func jpegName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "image"
	}
	return base + ".jpg"
}
