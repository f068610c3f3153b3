// CLAUDE:SUMMARY Image targets: rasterize styled HTML in headless Chrome, transcode to the target encoding.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image/gif"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/hazyhaar/docforge/artifact"
)

// renderImage renders the content as a styled HTML page and captures it as
// a raster image. Chrome emits png and jpeg natively; bmp, tiff and gif are
// transcoded from the png capture.
func (r *Renderer) renderImage(ctx context.Context, content, formatID, title, outPath string) error {
	if r.browser == nil {
		return fmt.Errorf("image rendering requires a browser, none configured")
	}

	page := htmlDocument(title, content)

	encoding := "png"
	if formatID == "jpg" || formatID == "jpeg" {
		encoding = "jpeg"
	}

	shot, err := r.browser.Capture(ctx, page, encoding)
	if err != nil {
		return err
	}

	switch formatID {
	case "png", "jpg", "jpeg":
		return artifact.WriteFileAtomic(outPath, shot)
	case "bmp", "tiff", "gif":
		data, err := transcodePNG(shot, formatID)
		if err != nil {
			return err
		}
		return artifact.WriteFileAtomic(outPath, data)
	}
	return fmt.Errorf("no image encoder for %q", formatID)
}

// transcodePNG re-encodes a png capture into the target raster encoding.
func transcodePNG(data []byte, formatID string) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}

	var buf bytes.Buffer
	switch formatID {
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		return nil, fmt.Errorf("no transcoder for %q", formatID)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", formatID, err)
	}
	return buf.Bytes(), nil
}
