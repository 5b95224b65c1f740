// Package media validates and normalizes uploaded images and stores them.
package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"net/http"

	_ "image/gif" // register decoders
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Box is the bounding box an image is scaled down into.
type Box struct {
	MaxWidth  int
	MaxHeight int
}

var (
	PostImage = Box{MaxWidth: 1200, MaxHeight: 1200}
	Avatar    = Box{MaxWidth: 400, MaxHeight: 400}
)

// ErrRejected matches every error caused by the upload itself rather than
// by the server.  Its message is safe to show to the user.
var ErrRejected = errors.New("image rejected")

type rejection string

func (r rejection) Error() string        { return string(r) }
func (r rejection) Is(target error) bool { return target == ErrRejected }

const (
	ErrEmpty           = rejection("No file uploaded")
	ErrTooLarge        = rejection("File too large")
	ErrUnsupportedType = rejection("Invalid file type. Only JPG, PNG, GIF and WebP are allowed")
	ErrCorrupt         = rejection("Invalid image file")
	ErrTooSmall        = rejection("Image too small (minimum 100x100 pixels)")
	ErrTooBig          = rejection("Image dimensions too large (maximum 5000x5000 pixels)")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Processor turns an upload into a bounded JPEG.
type Processor struct {
	MaxBytes int64
	Quality  int
	MinDim   int
	MaxDim   int
}

// NewProcessor returns a Processor with the default dimension limits.
func NewProcessor(maxBytes int64, quality int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Processor{MaxBytes: maxBytes, Quality: quality, MinDim: 100, MaxDim: 5000}
}

// Process validates data, applies the EXIF orientation, scales it down into
// maxW x maxH keeping the aspect ratio and re-encodes it as JPEG.
// Transparent areas are flattened onto white.
func (p *Processor) Process(data []byte, maxW, maxH int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if p.MaxBytes > 0 && int64(len(data)) > p.MaxBytes {
		return nil, ErrTooLarge
	}
	ct := http.DetectContentType(data)
	if !allowedTypes[ct] {
		return nil, ErrUnsupportedType
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrCorrupt
	}
	if cfg.Width < p.MinDim || cfg.Height < p.MinDim {
		return nil, ErrTooSmall
	}
	if p.MaxDim > 0 && (cfg.Width > p.MaxDim || cfg.Height > p.MaxDim) {
		return nil, ErrTooBig
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrCorrupt
	}

	img := flatten(src)
	if ct == "image/jpeg" {
		img = orient(img, exifOrientation(data))
	}
	img = fit(img, maxW, maxH)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: p.Quality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// flatten copies src onto an opaque white canvas anchored at the origin.
func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

// fit scales img down so that it fits into the box.  Images already inside
// the box are returned unchanged.
func fit(img *image.RGBA, maxW, maxH int) *image.RGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return img
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// exifOrientation returns the EXIF orientation tag, 1 when absent.
func exifOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}

// orient applies an EXIF orientation (2..8) so the image is upright.
//
//	2 flip H, 3 rotate 180, 4 flip V, 5 transpose,
//	6 rotate 90 CW, 7 transverse, 8 rotate 90 CCW
func orient(src *image.RGBA, o int) *image.RGBA {
	if o <= 1 {
		return src
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dw, dh := w, h
	if o >= 5 {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch o {
			case 2:
				dx, dy = w-1-x, y
			case 3:
				dx, dy = w-1-x, h-1-y
			case 4:
				dx, dy = x, h-1-y
			case 5:
				dx, dy = y, x
			case 6:
				dx, dy = h-1-y, x
			case 7:
				dx, dy = h-1-y, w-1-x
			case 8:
				dx, dy = y, w-1-x
			}
			si := src.PixOffset(x, y)
			di := dst.PixOffset(dx, dy)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}
