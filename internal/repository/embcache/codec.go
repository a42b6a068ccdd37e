package embcache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Cached value layout: version byte, uint32 dimension count, then float32 values,
// all little-endian.
const (
	codecVersion = 1
	headerLen    = 5
)

var errCorruptEntry = errors.New("corrupt cache entry")

func encodeVector(v []float32) []byte {
	buf := make([]byte, headerLen+len(v)*4)
	buf[0] = codecVersion
	binary.LittleEndian.PutUint32(buf[1:headerLen], uint32(len(v)))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[headerLen+i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) < headerLen {
		return nil, fmt.Errorf("%w: %d bytes", errCorruptEntry, len(data))
	}
	if data[0] != codecVersion {
		return nil, fmt.Errorf("%w: version %d", errCorruptEntry, data[0])
	}
	dims := int(binary.LittleEndian.Uint32(data[1:headerLen]))
	if dims == 0 || len(data) != headerLen+dims*4 {
		return nil, fmt.Errorf("%w: %d dims in %d bytes", errCorruptEntry, dims, len(data))
	}

	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[headerLen+i*4:]))
	}
	return vec, nil
}
