// Package codec serializes event batches for the ingestion wire.
package codec

import (
	"errors"
	"fmt"
	"mime"
)

var ErrNotRegistered = errors.New("codec not registered")

// Codec marshals values to and from a wire representation
type Codec interface {
	Name() string
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(b []byte, v any) error
}

var (
	Default Codec = JSON

	byName = map[string]Codec{
		"json":    JSON,
		"msgpack": MsgPack,
	}

	byContentType = map[string]Codec{
		JSON.ContentType():      JSON,
		MsgPack.ContentType():   MsgPack,
		"application/x-msgpack": MsgPack,
	}
)

// Get returns the codec registered under name
func Get(name string) (Codec, error) {
	c, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return c, nil
}

// ForContentType resolves a request Content-Type header. An empty header maps to JSON.
func ForContentType(header string) (Codec, error) {
	if header == "" {
		return Default, nil
	}

	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, header)
	}

	c, ok := byContentType[mediaType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, mediaType)
	}
	return c, nil
}
