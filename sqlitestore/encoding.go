package sqlitestore

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidVector is returned for a vector column that cannot be decoded.
var ErrInvalidVector = errors.New("invalid vector encoding")

// encodeVector writes the element count as int32 followed by each float32,
// all little-endian.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4+4*len(vector))
	binary.LittleEndian.PutUint32(buf, uint32(len(vector)))
	for i, value := range vector {
		binary.LittleEndian.PutUint32(buf[4+4*i:], math.Float32bits(value))
	}
	return buf
}

// decodeVector accepts a JSON array, a length-prefixed blob or a bare float32 blob.
func decodeVector(data []byte) ([]float32, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var vector []float32
		if err := json.Unmarshal(trimmed, &vector); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidVector, err)
		}
		return vector, nil
	}

	if len(data) >= 4 {
		count := int(binary.LittleEndian.Uint32(data))
		if count >= 0 && 4+4*count == len(data) {
			return readFloats(data[4:]), nil
		}
	}
	if len(data)%4 == 0 {
		return readFloats(data), nil
	}
	return nil, fmt.Errorf("%w: %d bytes", ErrInvalidVector, len(data))
}

func readFloats(data []byte) []float32 {
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vector
}
