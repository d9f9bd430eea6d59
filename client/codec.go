package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Codec converts between structured values and JSON text.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default [Codec], backed by encoding/json.
// UseNumber decodes numbers into json.Number instead of float64.
type JSONCodec struct {
	UseNumber bool
}

func (c JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c JSONCodec) Unmarshal(data []byte, v any) error {
	d := json.NewDecoder(bytes.NewReader(data))
	if c.UseNumber {
		d.UseNumber()
	}

	if err := d.Decode(v); err != nil {
		return err
	}

	// The payload must hold exactly one JSON value.
	if err := d.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected content after JSON value")
	}

	return nil
}
