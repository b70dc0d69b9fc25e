package storage

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxImageDimension 갤러리 이미지 최대 가로/세로
const MaxImageDimension = 1200

const jpegQuality = 85

// maxDecodePixels 이보다 큰 이미지는 디코딩하지 않음 (압축 폭탄 방지)
var maxDecodePixels = 50_000_000

// Downscale 긴 변이 maxDim 을 넘으면 비율을 유지해 축소
// 반환 format 은 다시 인코딩한 형식 ("jpeg", "png"), 원본을 그대로 돌려주면 ""
// WebP 는 PNG 로 다시 인코딩, 디코딩할 수 없거나 너무 큰 이미지는 원본 그대로
func Downscale(data []byte, maxDim int) ([]byte, string) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return data, ""
	}
	if format != "jpeg" && format != "png" && format != "webp" {
		return data, ""
	}
	if cfg.Width <= maxDim && cfg.Height <= maxDim {
		return data, ""
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxDecodePixels) {
		return data, ""
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, ""
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	nw, nh := maxDim, maxDim
	if w >= h {
		nh = h * maxDim / w
	} else {
		nw = w * maxDim / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	out := "png"
	if format == "jpeg" {
		out = "jpeg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	} else {
		err = (&png.Encoder{CompressionLevel: png.BestCompression}).Encode(&buf, dst)
	}
	if err != nil {
		return data, ""
	}
	return buf.Bytes(), out
}
