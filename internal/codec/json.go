package codec

import (
	"bytes"
	"encoding/json"
)

var JSON Codec = &jsonCodec{}

type jsonCodec struct{}

func (*jsonCodec) Name() string {
	return "json"
}

func (*jsonCodec) ContentType() string {
	return "application/json"
}

func (*jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal keeps payload numbers as json.Number so large integer ids
// survive decoding without float rounding
func (*jsonCodec) Unmarshal(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}
