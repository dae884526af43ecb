package imagecodec

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/errors"
)

var tinyGIF = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")

func TestCodec_RoundTrip(t *testing.T) {
	req := require.New(t)
	codec := New()

	encoded, err := codec.Encode(tinyGIF)
	req.NoError(err)

	decoded, err := codec.Decode(encoded)
	req.NoError(err)
	req.Equal(tinyGIF, decoded)
}

func TestCodec_Encode_RejectsNonImage(t *testing.T) {
	req := require.New(t)
	codec := New()

	_, err := codec.Encode([]byte("definitely not pixels"))
	req.ErrorIs(err, errors.ErrNotAnImage)
}

func TestCodec_Decode_RejectsBadBase64(t *testing.T) {
	req := require.New(t)
	codec := New()

	_, err := codec.Decode("%%%not-base64%%%")
	req.ErrorIs(err, errors.ErrMalformedImage)
}

func TestCodec_Decode_RejectsNonImagePayload(t *testing.T) {
	req := require.New(t)
	codec := New()

	_, err := codec.Decode(base64.StdEncoding.EncodeToString([]byte("plain text")))
	req.ErrorIs(err, errors.ErrMalformedImage)
}
