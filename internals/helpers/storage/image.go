package storage

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"math"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"

	"proctorx_backend/internals/configs"
)

var (
	ErrImageMissing     = errors.New("image data missing")
	ErrImageUnsupported = errors.New("unsupported image format")
)

const maxSnapshotBytes = 5 * 1024 * 1024

type WebPOptions struct {
	MaxW    int
	MaxH    int
	Quality float32
}

func DefaultWebPOptions() WebPOptions {
	return WebPOptions{
		MaxW:    configs.GetEnvInt("IMAGE_WEBP_MAX_W", 1280),
		MaxH:    configs.GetEnvInt("IMAGE_WEBP_MAX_H", 1280),
		Quality: float32(configs.GetEnvInt("IMAGE_WEBP_QUALITY", 75)),
	}
}

// Image is a decoded upload ready for storage.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeDataURL accepts "data:image/jpeg;base64,...." or bare base64.
func DecodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrImageMissing
	}
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 {
			return nil, ErrImageUnsupported
		}
		s = s[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if raw, err = base64.RawStdEncoding.DecodeString(s); err != nil {
			return nil, fmt.Errorf("decode base64: %w", err)
		}
	}
	if len(raw) == 0 {
		return nil, ErrImageMissing
	}
	if len(raw) > maxSnapshotBytes {
		return nil, fmt.Errorf("image too large (max %d bytes)", maxSnapshotBytes)
	}
	return raw, nil
}

func decodeImage(all []byte) (image.Image, string, error) {
	head := all
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)

	var (
		img image.Image
		err error
	)
	switch {
	case strings.Contains(ct, "jpeg"):
		img, err = jpeg.Decode(bytes.NewReader(all))
	case strings.Contains(ct, "png"):
		img, err = png.Decode(bytes.NewReader(all))
	case strings.Contains(ct, "webp"):
		img, err = webp.Decode(bytes.NewReader(all))
	default:
		return nil, ct, ErrImageUnsupported
	}
	return img, ct, err
}

// downscaleIfNeeded keeps aspect ratio, CatmullRom for quality.
func downscaleIfNeeded(src image.Image, maxW, maxH int) image.Image {
	if maxW <= 0 && maxH <= 0 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if (maxW <= 0 || w <= maxW) && (maxH <= 0 || h <= maxH) {
		return src
	}
	scale := 1.0
	if maxW > 0 {
		scale = math.Min(scale, float64(maxW)/float64(w))
	}
	if maxH > 0 {
		scale = math.Min(scale, float64(maxH)/float64(h))
	}
	nw := int(math.Max(1, math.Round(float64(w)*scale)))
	nh := int(math.Max(1, math.Round(float64(h)*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// PrepareSnapshot decodes a webcam frame and re-encodes it as WebP.
// If the WebP encoder fails the original bytes are kept.
func PrepareSnapshot(raw []byte, opt WebPOptions) (*Image, error) {
	img, ct, err := decodeImage(raw)
	if err != nil {
		if errors.Is(err, ErrImageUnsupported) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrImageUnsupported, err)
	}

	img = downscaleIfNeeded(img, opt.MaxW, opt.MaxH)

	q := opt.Quality
	if q <= 0 {
		q = 75
	}
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Quality: q}); err != nil {
		log.Printf("[WARN] webp encode failed, keeping %s: %v", ct, err)
		return &Image{Data: raw, ContentType: ct, Ext: extFor(ct)}, nil
	}
	return &Image{Data: buf.Bytes(), ContentType: "image/webp", Ext: "webp"}, nil
}

func extFor(ct string) string {
	switch {
	case strings.Contains(ct, "png"):
		return "png"
	case strings.Contains(ct, "webp"):
		return "webp"
	default:
		return "jpg"
	}
}
