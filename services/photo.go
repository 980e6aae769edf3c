package services

import (
	"bytes"
	"fmt"
	"image"
	"net/http"

	"github.com/disintegration/imaging"
)

const (
	minJPEGQuality = 40
	maxJPEGQuality = 90
	minPhotoEdge   = 320
	shrinkStep     = 0.85
)

// PhotoLimits bounds a stored photo.
type PhotoLimits struct {
	MaxBytes     int
	MaxDimension int
}

// sniffImage returns the detected MIME type if it is JPEG or PNG.
func sniffImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", invalid("file", "file is empty")
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	switch ct := http.DetectContentType(head); ct {
	case "image/jpeg", "image/png":
		return ct, nil
	default:
		return "", invalid("file", fmt.Sprintf("only JPEG or PNG images are accepted, got %s", ct))
	}
}

// normalizePhoto decodes a JPEG/PNG, fits it within MaxDimension and
// re-encodes it as JPEG no larger than MaxBytes. Quality is searched first;
// if even the lowest quality is too big the image is shrunk and retried.
func normalizePhoto(data []byte, limits PhotoLimits) ([]byte, error) {
	if _, err := sniffImage(data); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, invalid("file", "image could not be decoded")
	}
	img = fitWithin(img, limits.MaxDimension)

	for attempt := 0; attempt < 6; attempt++ {
		out, err := smallestJPEGUnder(img, limits.MaxBytes)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
		b := img.Bounds()
		w, h := int(float64(b.Dx())*shrinkStep), int(float64(b.Dy())*shrinkStep)
		if w < minPhotoEdge && h < minPhotoEdge {
			break
		}
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}
	return nil, invalid("file", fmt.Sprintf("image cannot be compressed below %d KB", limits.MaxBytes/1024))
}

func fitWithin(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	if maxDim <= 0 || (b.Dx() <= maxDim && b.Dy() <= maxDim) {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

// smallestJPEGUnder binary-searches the highest quality that fits maxBytes.
// It returns nil, nil when no quality in range fits.
func smallestJPEGUnder(img image.Image, maxBytes int) ([]byte, error) {
	var best []byte
	low, high := minJPEGQuality, maxJPEGQuality
	for low <= high {
		q := (low + high) / 2
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		if buf.Len() <= maxBytes {
			best = buf.Bytes()
			low = q + 1
		} else {
			high = q - 1
		}
	}
	return best, nil
}
