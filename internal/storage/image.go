package storage

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	MaxImageDimension = 1920
	JPEGQuality       = 85
)

// CompressImage downsizes an image so neither side exceeds maxDim and
// re-encodes it as JPEG. Undecodable input is returned unchanged with ok=false.
func CompressImage(data []byte, maxDim, quality int) (out []byte, ok bool) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, false
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	nw, nh := fitWithin(w, h, maxDim)

	// JPEG has no alpha, so transparent areas are flattened onto white
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if nw != w || nh != h {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	} else {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return data, false
	}
	return buf.Bytes(), true
}

// fitWithin scales w x h down proportionally so the longer side is at most limit.
func fitWithin(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}
