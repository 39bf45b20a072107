package imagegen

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
)

func TestNormalizeImageLetterboxesAndFlattens(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			src.Set(x, y, color.NRGBA{R: 10, G: 20, B: 200, A: 255})
		}
	}
	// A fully transparent column on the left edge.
	for y := 0; y < 20; y++ {
		src.Set(0, y, color.NRGBA{})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := NormalizeImage(buf.Bytes(), 32)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Fatalf("expected 32x32, got %v", img.Bounds())
	}
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				t.Fatalf("pixel %d,%d not opaque", x, y)
			}
		}
	}
	if r, g, b, _ := img.At(16, 0).RGBA(); r != 0xffff || g != 0xffff || b != 0xffff {
		t.Fatalf("expected white letterbox band at top, got %v", img.At(16, 0))
	}
	if _, _, b, _ := img.At(16, 16).RGBA(); b < 0x8000 {
		t.Fatalf("expected source content in the center, got %v", img.At(16, 16))
	}
}

func TestNormalizeImageRejectsUnknownPayload(t *testing.T) {
	_, err := NormalizeImage([]byte("GIF89a-not-really"), 32)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDecode {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestFitRect(t *testing.T) {
	cases := []struct {
		w, h int
		want image.Rectangle
	}{
		{w: 100, h: 100, want: image.Rect(0, 0, 512, 512)},
		{w: 200, h: 100, want: image.Rect(0, 128, 512, 384)},
		{w: 100, h: 400, want: image.Rect(192, 0, 320, 512)},
	}
	for _, tc := range cases {
		if got := fitRect(tc.w, tc.h, 512); got != tc.want {
			t.Fatalf("fitRect(%d, %d) = %v, want %v", tc.w, tc.h, got, tc.want)
		}
	}
}

func TestArtifactStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewArtifactStore(dir, "product_images")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	exists, err := store.Exists("85123A")
	if err != nil || exists {
		t.Fatalf("expected no artifact yet (%v)", err)
	}

	ref, err := store.Save("85123A", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ref != "product_images/85123A.png" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if exists, _ := store.Exists("85123A"); !exists {
		t.Fatal("expected artifact after save")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "85123A.png" {
		t.Fatalf("expected only the final artifact, got %v", entries)
	}
	raw, _ := os.ReadFile(filepath.Join(dir, "85123A.png"))
	if string(raw) != "png-bytes" {
		t.Fatalf("unexpected contents %q", raw)
	}
}

func TestArtifactStoreRejectsBadKeys(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir(), "product_images")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, key := range []string{"", "..", "a/b", `a\b`} {
		if _, err := store.Save(key, nil); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Fatalf("key %q: expected validation error, got %v", key, err)
		}
	}
}
