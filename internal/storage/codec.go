package storage

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/configsrv/hoganserver/internal/configmodel"
)

// EncodeEnv serializes an Environment to its compressed, length-prefixed
// binary envelope: config_data travels as a JSON string inside the
// msgpack payload, which is then zstd-compressed.
func EncodeEnv(e configmodel.Environment) ([]byte, error) {
	return encode(e.ToWritable())
}

// DecodeEnv reverses EncodeEnv.
func DecodeEnv(blob []byte) (configmodel.Environment, error) {
	var w configmodel.WritableEnvironment
	if err := decode(blob, &w); err != nil {
		return configmodel.Environment{}, err
	}
	return w.FromEnvironment(), nil
}

// EncodeListing serializes a Listing to its compressed binary envelope.
func EncodeListing(l configmodel.Listing) ([]byte, error) {
	return encode(l.ToWritable())
}

// DecodeListing reverses EncodeListing.
func DecodeListing(blob []byte) (configmodel.Listing, error) {
	var w configmodel.WritableEnvironmentListing
	if err := decode(blob, &w); err != nil {
		return nil, err
	}
	return w.FromListing(), nil
}

func encode(v any) ([]byte, error) {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("storage: msgpack encode: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("storage: zstd writer: %w", err)
	}
	defer enc.Close()

	return enc.EncodeAll(raw, nil), nil
}

func decode(blob []byte, out any) error {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return fmt.Errorf("storage: zstd reader: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return fmt.Errorf("storage: zstd decode: %w", err)
	}

	if err := msgpack.NewDecoder(bytes.NewReader(raw)).Decode(out); err != nil {
		if err == io.EOF {
			return fmt.Errorf("storage: msgpack decode: empty payload")
		}
		return fmt.Errorf("storage: msgpack decode: %w", err)
	}
	return nil
}
