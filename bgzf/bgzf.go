// Copyright ©2022 The htsgo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bgzf provides BGZF virtual file offset handling.
//
// A virtual file offset packs the file offset of a BGZF block start and
// an offset within the uncompressed content of that block into a single
// 64 bit value. The block framing and compression itself is not handled
// here; the package only provides the offset arithmetic that indexing
// and record addressing layers need.
package bgzf

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	BlockSize    = 0x0ff00 // Size of input data block.
	MaxBlockSize = 0x10000 // Maximum size of output block.
)

const (
	maxCoffset = 1<<48 - 1
	maxUoffset = 1<<16 - 1
)

var (
	ErrOffsetRange = errors.New("bgzf: virtual offset field out of range")
)

// Offset is a BGZF virtual offset. File is the file offset of the start
// of a compressed block and Block is the offset within the uncompressed
// content of that block.
type Offset struct {
	File  int64
	Block uint16
}

// Chunk is a half-open interval of virtual offsets, [Begin,End).
type Chunk struct {
	Begin Offset
	End   Offset
}

// NewOffset returns an Offset for the given compressed block start and
// uncompressed block offset. The coffset must fit in 48 bits and the
// uoffset in 16 bits.
func NewOffset(coffset, uoffset uint64) (Offset, error) {
	if coffset > maxCoffset {
		return Offset{}, fmt.Errorf("bgzf: coffset %d exceeds %d: %w", coffset, uint64(maxCoffset), ErrOffsetRange)
	}
	if uoffset > maxUoffset {
		return Offset{}, fmt.Errorf("bgzf: uoffset %d exceeds %d: %w", uoffset, uint64(maxUoffset), ErrOffsetRange)
	}
	return Offset{File: int64(coffset), Block: uint16(uoffset)}, nil
}

// Virtual returns the packed 64 bit representation of the offset, the
// coffset in the upper 48 bits and the uoffset in the lower 16.
func (o Offset) Virtual() uint64 {
	return uint64(o.File)<<16 | uint64(o.Block)
}

// OffsetFromVirtual unpacks a 64 bit virtual offset.
func OffsetFromVirtual(v uint64) Offset {
	return Offset{File: int64(v >> 16), Block: uint16(v & maxUoffset)}
}

// ParseOffset reads a little-endian packed virtual offset from b, which
// must be exactly 8 bytes long.
func ParseOffset(b []byte) (Offset, error) {
	if len(b) != 8 {
		return Offset{}, fmt.Errorf("bgzf: offset must be 8 bytes, got %d", len(b))
	}
	return OffsetFromVirtual(binary.LittleEndian.Uint64(b)), nil
}

// ParseOffsets decodes a buffer of consecutive little-endian packed
// virtual offsets. The buffer length must be a multiple of 8.
func ParseOffsets(b []byte) ([]Offset, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("bgzf: offset buffer length %d is not a multiple of 8", len(b))
	}
	off := make([]Offset, len(b)/8)
	for i := range off {
		off[i] = OffsetFromVirtual(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return off, nil
}

// ParseChunks decodes a buffer of consecutive begin/end virtual offset
// pairs. The buffer length must be a multiple of 16.
func ParseChunks(b []byte) ([]Chunk, error) {
	if len(b)%16 != 0 {
		return nil, fmt.Errorf("bgzf: chunk buffer length %d is not a multiple of 16", len(b))
	}
	chunks := make([]Chunk, len(b)/16)
	for i := range chunks {
		chunks[i] = Chunk{
			Begin: OffsetFromVirtual(binary.LittleEndian.Uint64(b[i*16:])),
			End:   OffsetFromVirtual(binary.LittleEndian.Uint64(b[i*16+8:])),
		}
	}
	return chunks, nil
}
