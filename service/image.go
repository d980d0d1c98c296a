package service

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kevinaaaquil/skillspark/apperr"
)

// CheckImage rejects covers in a format the sink cannot resize.
func CheckImage(data []byte) error {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return apperr.Wrap(apperr.UnsupportedMediaType, "Unsupported image format. Use JPEG, PNG, GIF, BMP or TIFF.", err)
	}
	return nil
}

type FittedImage struct {
	Data        []byte
	ContentType string
	Ext         string
}

// FitImage bounds the longest edge of an encoded image to maxEdge. Images already
// within bounds are returned as given, so nothing is ever upscaled or recompressed
// without need.
func FitImage(data []byte, maxEdge int) (*FittedImage, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	format, err := imaging.FormatFromExtension(name)
	if err != nil {
		return nil, err
	}
	out := &FittedImage{
		Data:        data,
		ContentType: "image/" + name,
		Ext:         extFor(format),
	}
	if cfg.Width <= maxEdge && cfg.Height <= maxEdge {
		return out, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos), format); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	out.Data = buf.Bytes()
	return out, nil
}

func extFor(f imaging.Format) string {
	if f == imaging.JPEG {
		return ".jpg"
	}
	return "." + strings.ToLower(f.String())
}
