// Package imagecodec is the profile-picture codec boundary: raw image bytes
// to a wire-safe text token and back. The relay never interprets the pixels;
// it only refuses payloads that do not detect as an image at all.
package imagecodec

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"chat-relay/errors"
)

type Codec struct{}

func New() Codec {
	return Codec{}
}

// Encode turns stored picture bytes into a base64 token.
func (Codec) Encode(raw []byte) (string, error) {
	if !isImage(raw) {
		return "", errors.ErrNotAnImage
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode parses a base64 token received over the wire and verifies the
// result carries an image signature.
func (Codec) Decode(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedImage, err)
	}
	if !isImage(raw) {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedImage, errors.ErrNotAnImage)
	}
	return raw, nil
}

func isImage(raw []byte) bool {
	return strings.HasPrefix(mimetype.Detect(raw).String(), "image/")
}
