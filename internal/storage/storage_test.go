package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskPutRejectsDuplicateWithoutUpsert(t *testing.T) {
	d, err := NewDisk(t.TempDir(), "http://localhost:8080/storage/")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, BucketMedia, "talent/1_a.jpg", []byte("one"), PutOptions{}))
	err = d.Put(ctx, BucketMedia, "talent/1_a.jpg", []byte("two"), PutOptions{})
	assert.ErrorIs(t, err, ErrObjectExists)

	got, err := d.Get(ctx, BucketMedia, "talent/1_a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "one", string(got))

	require.NoError(t, d.Put(ctx, BucketMedia, "talent/1_a.jpg", []byte("two"), PutOptions{Upsert: true}))
	got, err = d.Get(ctx, BucketMedia, "talent/1_a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}

func TestDiskDeleteAndMissing(t *testing.T) {
	d, err := NewDisk(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = d.Get(ctx, BucketMedia, "nope.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, d.Put(ctx, BucketMedia, "x.jpg", []byte("x"), PutOptions{}))
	require.NoError(t, d.Delete(ctx, BucketMedia, "x.jpg"))
	assert.ErrorIs(t, d.Delete(ctx, BucketMedia, "x.jpg"), ErrObjectNotFound)
}

func TestDiskRejectsTraversal(t *testing.T) {
	d, err := NewDisk(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"../etc/passwd", "a/../../b", "", "/"} {
		err := d.Put(ctx, BucketMedia, key, []byte("x"), PutOptions{})
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
	assert.ErrorIs(t, d.Put(ctx, "../media", "a.jpg", nil, PutOptions{}), ErrInvalidKey)
}

func TestPublicURL(t *testing.T) {
	d := &Disk{BaseURL: "https://cdn.example.com/storage"}
	assert.Equal(t, "https://cdn.example.com/storage/media/t1/17_my%20photo.jpg", d.PublicURL(BucketMedia, "t1/17_my photo.jpg"))
}

func TestFitWithin(t *testing.T) {
	cases := []struct {
		w, h, wantW, wantH int
	}{
		{800, 600, 800, 600},
		{3840, 2160, 1920, 1080},
		{1000, 4000, 480, 1920},
		{1920, 1920, 1920, 1920},
		{10000, 1, 1920, 1},
	}
	for _, tc := range cases {
		gw, gh := fitWithin(tc.w, tc.h, MaxImageDimension)
		assert.Equal(t, tc.wantW, gw, "%dx%d", tc.w, tc.h)
		assert.Equal(t, tc.wantH, gh, "%dx%d", tc.w, tc.h)
	}
}

func TestCompressImageResizesToJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3000, 1500))
	for x := 0; x < 3000; x += 7 {
		src.Set(x, x%1500, color.RGBA{R: 200, A: 255})
	}
	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, src))

	out, ok := CompressImage(in.Bytes(), MaxImageDimension, JPEGQuality)
	require.True(t, ok)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1920, cfg.Width)
	assert.Equal(t, 960, cfg.Height)
}

func TestCompressImageFallsBackOnGarbage(t *testing.T) {
	in := []byte("definitely not an image")
	out, ok := CompressImage(in, MaxImageDimension, JPEGQuality)
	assert.False(t, ok)
	assert.Equal(t, in, out)
}
