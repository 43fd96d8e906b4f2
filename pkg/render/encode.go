package render

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	"github.com/matzehuels/clishot/pkg/errors"
	"github.com/matzehuels/clishot/pkg/layout"
)

// PNG encodes the canvas as PNG.
func (c *Canvas) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

// Base64 encodes the canvas as PNG and wraps it in standard base64.
func (c *Canvas) Base64() ([]byte, error) {
	data, err := c.PNG()
	if err != nil {
		return nil, err
	}
	return EncodeBase64(data), nil
}

// JSON exports the plan the canvas was drawn from.
func (c *Canvas) JSON() ([]byte, error) {
	return MarshalPlan(c.Plan)
}

// EncodeBase64 wraps data in standard base64.
func EncodeBase64(data []byte) []byte {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
	base64.StdEncoding.Encode(out, data)
	return out
}

// DecodeBase64 reverses [EncodeBase64].
func DecodeBase64(data []byte) ([]byte, error) {
	out := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(out, bytes.TrimSpace(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode base64")
	}
	return out[:n], nil
}

// MarshalPlan serializes a plan as indented JSON.
func MarshalPlan(p *layout.Plan) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "marshal plan")
	}
	return data, nil
}
