package bot

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// EncodeSetup serializes a setup as zstd-compressed gob. Distance fields
// carry +Inf for unreachable cells, which gob keeps intact.
func EncodeSetup(s *Setup) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	if err := gob.NewEncoder(enc).Encode(s); err != nil {
		enc.Close()
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSetup is the inverse of EncodeSetup.
func DecodeSetup(data []byte) (*Setup, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var s Setup
	if err := gob.NewDecoder(dec).Decode(&s); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return &s, nil
}
