// Package imageproc normalizes uploaded profile pictures.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// ErrNotAnImage is returned when the upload cannot be decoded as an image
var ErrNotAnImage = errors.New("file is not a decodable image")

// AvatarContentType is the type of every processed avatar
const AvatarContentType = "image/jpeg"

// SquareAvatar decodes r, crops it to a centred square of dim pixels and re-encodes it as JPEG
func SquareAvatar(r io.Reader, dim int) ([]byte, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid avatar dimension %d", dim)
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	img = imaging.Fill(img, dim, dim, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
