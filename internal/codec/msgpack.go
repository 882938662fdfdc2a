package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

var MsgPack Codec = &msgpackCodec{}

type msgpackCodec struct{}

func (*msgpackCodec) Name() string {
	return "msgpack"
}

func (*msgpackCodec) ContentType() string {
	return "application/msgpack"
}

func (*msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (*msgpackCodec) Unmarshal(b []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
