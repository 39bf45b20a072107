package imagegen

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"

	"github.com/gabriel-vasile/mimetype"
	xdraw "golang.org/x/image/draw"

	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
)

// ArtifactContentType is the media type of every stored artifact.
const ArtifactContentType = "image/png"

var decodableTypes = []string{"image/png", "image/jpeg"}

// NormalizeImage decodes a generated payload and renders it as a size x size
// PNG. Non-square sources are scaled to fit and centered on white, and any
// transparency is flattened against white.
func NormalizeImage(payload []byte, size int) ([]byte, error) {
	if size <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "artifact size must be positive")
	}
	detected := mimetype.Detect(payload)
	if !mimetype.EqualsAny(detected.String(), decodableTypes...) {
		return nil, pkgerrors.New(pkgerrors.CodeDecode, "unsupported payload type").
			WithDetails(map[string]any{"mime": detected.String()})
	}
	src, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "decode payload")
	}
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDecode, "payload has no pixels")
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(dst, fitRect(bounds.Dx(), bounds.Dy(), size), src, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, dst); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode artifact")
	}
	return buf.Bytes(), nil
}

// fitRect returns the centered rectangle a w x h image occupies when scaled
// to fit a size x size square.
func fitRect(w, h, size int) image.Rectangle {
	fw, fh := size, size
	if w > h {
		fh = max(1, h*size/w)
	} else if h > w {
		fw = max(1, w*size/h)
	}
	x := (size - fw) / 2
	y := (size - fh) / 2
	return image.Rect(x, y, x+fw, y+fh)
}
