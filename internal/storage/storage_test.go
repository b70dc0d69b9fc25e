package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureFilename(t *testing.T) {
	assert.Equal(t, "my_photo.jpg", SecureFilename("my photo.jpg"))
	assert.Equal(t, "etc_passwd", SecureFilename("../../etc/passwd"))
	assert.Equal(t, "caf.png", SecureFilename("café.png"))
}

func TestUploadKey(t *testing.T) {
	key := UploadKey("room-1", "our trip.png")
	assert.True(t, strings.HasPrefix(key, "room-1/"))
	assert.True(t, strings.HasSuffix(key, "_our_trip.png"))
}

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "/static/uploads/")
	ctx := context.Background()

	url, err := store.Save(ctx, "room-1/a.png", "image/png", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "/static/uploads/room-1/a.png", url)

	got, err := os.ReadFile(filepath.Join(root, "room-1", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	require.NoError(t, store.Delete(ctx, "room-1/a.png"))
	require.NoError(t, store.Delete(ctx, "room-1/a.png"))

	_, err = store.Save(ctx, "../escape.png", "", []byte("x"))
	assert.Error(t, err)
}

type fakeObjects struct {
	puts    map[string][]byte
	deleted []string
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(in.Body); err != nil {
		return nil, err
	}
	f.puts[*in.Key] = buf.Bytes()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	objects := &fakeObjects{puts: map[string][]byte{}}
	store := newS3Store(objects, "bucket", "https://cdn.example.com/")
	ctx := context.Background()

	url, err := store.Save(ctx, "room-1/a.jpg", "image/jpeg", []byte("jpg"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/uploads/room-1/a.jpg", url)
	assert.Equal(t, "https://cdn.example.com/uploads/room-1/a.jpg", store.URL("room-1/a.jpg"))
	assert.Equal(t, []byte("jpg"), objects.puts["uploads/room-1/a.jpg"])

	require.NoError(t, store.Delete(ctx, "room-1/a.jpg"))
	assert.Equal(t, []string{"uploads/room-1/a.jpg"}, objects.deleted)
}

func encodeTestImage(t *testing.T, w, h int, asJPEG bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 77, G: 163, B: 255, A: 255})
	}
	var buf bytes.Buffer
	if asJPEG {
		require.NoError(t, jpeg.Encode(&buf, img, nil))
	} else {
		require.NoError(t, png.Encode(&buf, img))
	}
	return buf.Bytes()
}

// 40x20 단색 무손실 WebP
const solidWebP = "UklGRhYAAABXRUJQVlA4TAoAAAAvJ8AEAIj+R/8D"

func TestDownscale(t *testing.T) {
	large := encodeTestImage(t, 2400, 1200, true)
	out, format := Downscale(large, MaxImageDimension)
	assert.Equal(t, "jpeg", format)
	cfg, decoded, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", decoded)
	assert.Equal(t, 1200, cfg.Width)
	assert.Equal(t, 600, cfg.Height)

	tall := encodeTestImage(t, 300, 1500, false)
	out, format = Downscale(tall, MaxImageDimension)
	assert.Equal(t, "png", format)
	cfg, decoded, err = image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", decoded)
	assert.Equal(t, 240, cfg.Width)
	assert.Equal(t, 1200, cfg.Height)

	small := encodeTestImage(t, 100, 100, false)
	out, format = Downscale(small, MaxImageDimension)
	assert.Equal(t, small, out)
	assert.Empty(t, format)

	garbage := []byte("not an image")
	out, format = Downscale(garbage, MaxImageDimension)
	assert.Equal(t, garbage, out)
	assert.Empty(t, format)
}

func TestDownscaleWebPAsPNG(t *testing.T) {
	data, err := base64.StdEncoding.DecodeString(solidWebP)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "webp", format)
	require.Equal(t, 40, cfg.Width)

	out, format := Downscale(data, 10)
	assert.Equal(t, "png", format)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 5, img.Bounds().Dy())
}

func TestDownscaleSkipsOversizedImages(t *testing.T) {
	saved := maxDecodePixels
	maxDecodePixels = 1000
	t.Cleanup(func() { maxDecodePixels = saved })

	// 200x200 = 40000 픽셀, 한도를 넘으면 디코딩 없이 원본 유지
	huge := encodeTestImage(t, 200, 200, false)
	out, format := Downscale(huge, 50)
	assert.Equal(t, huge, out)
	assert.Empty(t, format)

	ok := encodeTestImage(t, 30, 20, false)
	out, format = Downscale(ok, 10)
	assert.Equal(t, "png", format)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Width)
}
