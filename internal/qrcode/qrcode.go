package qrcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"time"

	goqrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"go.uber.org/zap"
)

const (
	boxSize       = 10
	cornerRadius  = 3
	margin        = 20
	captionHeight = 50
	captionInset  = 30
	titleLimit    = 20
)

var (
	centerColor = color.RGBA{R: 77, G: 163, B: 255, A: 255}
	edgeColor   = color.RGBA{R: 110, G: 181, B: 255, A: 255}
	simpleColor = color.RGBA{R: 0x4D, G: 0xA3, B: 0xFF, A: 0xFF}
)

// Result QR 생성 결과
// Path 는 /static 기준 공개 경로 ("qrcodes/<file>"), 실제 파일은 Generator 디렉터리에 있고
// 서버가 /static/qrcodes 를 그 디렉터리에 마운트
type Result struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
	Base64  string `json:"base64,omitempty"`
	URL     string `json:"url"`
	Error   string `json:"error,omitempty"`
}

// Generator QR 이미지를 dir 에 저장
type Generator struct {
	dir string
	now func() time.Time
	log *zap.Logger
}

// NewGenerator dir 은 QR 저장 디렉터리 (예: static/qrcodes)
func NewGenerator(dir string, now func() time.Time, log *zap.Logger) *Generator {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{dir: dir, now: now, log: log}
}

// PartnerLink 파트너에게 공유하는 참여 요청 링크
func PartnerLink(baseURL, roomID string) string {
	return baseURL + "/join-request/" + roomID
}

// File Result.Path 에 해당하는 실제 파일 경로
func (g *Generator) File(path string) string {
	return filepath.Join(g.dir, filepath.Base(path))
}

// Generate 스타일 QR 을 먼저 시도하고 실패하면 단순 QR 로 대체
func (g *Generator) Generate(baseURL, roomID, title string) Result {
	link := PartnerLink(baseURL, roomID)

	filename := fmt.Sprintf("qr_%s_%s.png", roomID, g.now().Format("20060102_150405"))
	data, err := Styled(link, title)
	if err == nil {
		err = g.write(filename, data)
	}
	if err == nil {
		return g.result(filename, data, link)
	}
	g.log.Warn("⚠️ Styled QR generation failed, falling back to simple QR",
		zap.String("room_id", roomID), zap.Error(err))

	filename = fmt.Sprintf("qr_simple_%s.png", roomID)
	data, err = Simple(link)
	if err == nil {
		err = g.write(filename, data)
	}
	if err == nil {
		return g.result(filename, data, link)
	}
	g.log.Error("❌ Simple QR generation failed",
		zap.String("room_id", roomID), zap.Error(err))

	return Result{
		Success: false,
		Error:   err.Error(),
		URL:     "/join-request/" + roomID,
	}
}

func (g *Generator) write(filename string, data []byte) error {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(g.dir, filename), data, 0o644)
}

func (g *Generator) result(filename string, data []byte, link string) Result {
	return Result{
		Success: true,
		Path:    "qrcodes/" + filename,
		Base64:  base64.StdEncoding.EncodeToString(data),
		URL:     link,
	}
}

// Simple 단색 QR PNG
func Simple(link string) ([]byte, error) {
	q, err := goqrcode.New(link, goqrcode.Medium)
	if err != nil {
		return nil, err
	}
	q.ForegroundColor = simpleColor
	q.BackgroundColor = color.White
	return q.PNG(-boxSize)
}

// Styled 둥근 모듈과 방사형 그라데이션, 하단 캡션이 들어간 QR PNG
func Styled(link, title string) ([]byte, error) {
	q, err := goqrcode.New(link, goqrcode.Highest)
	if err != nil {
		return nil, err
	}

	bitmap := q.Bitmap()
	code := renderModules(bitmap)

	size := code.Bounds().Dx()
	canvas := image.NewRGBA(image.Rect(0, 0, size+2*margin, size+2*margin+captionHeight-margin))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, code.Bounds().Add(image.Pt(margin, margin)), code, image.Point{}, draw.Src)

	drawCaption(canvas, "DuoVerse: "+truncate(title, titleLimit))

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderModules(bitmap [][]bool) *image.RGBA {
	n := len(bitmap)
	size := n * boxSize
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	center := float64(size) / 2
	maxDist := math.Hypot(center, center)

	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			if !bitmap[row][col] {
				continue
			}
			x0, y0 := col*boxSize, row*boxSize
			for ly := 0; ly < boxSize; ly++ {
				for lx := 0; lx < boxSize; lx++ {
					if !insideRounded(lx, ly) {
						continue
					}
					x, y := x0+lx, y0+ly
					t := math.Hypot(float64(x)-center, float64(y)-center) / maxDist
					img.SetRGBA(x, y, gradient(t))
				}
			}
		}
	}
	return img
}

// insideRounded 모서리를 둥글게 깎은 모듈 내부 여부
func insideRounded(lx, ly int) bool {
	r := cornerRadius
	cx, cy := -1, -1
	switch {
	case lx < r:
		cx = r
	case lx >= boxSize-r:
		cx = boxSize - r - 1
	}
	switch {
	case ly < r:
		cy = r
	case ly >= boxSize-r:
		cy = boxSize - r - 1
	}
	if cx < 0 || cy < 0 {
		return true
	}
	dx, dy := lx-cx, ly-cy
	return dx*dx+dy*dy <= r*r
}

func gradient(t float64) color.RGBA {
	if t > 1 {
		t = 1
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return color.RGBA{
		R: lerp(centerColor.R, edgeColor.R),
		G: lerp(centerColor.G, edgeColor.G),
		B: lerp(centerColor.B, edgeColor.B),
		A: 255,
	}
}

func drawCaption(canvas *image.RGBA, text string) {
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(centerColor),
		Face: basicfont.Face7x13,
	}
	width := d.MeasureString(text).Round()
	b := canvas.Bounds()
	d.Dot = fixed.P((b.Dx()-width)/2, b.Dy()-captionInset)
	d.DrawString(text)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
