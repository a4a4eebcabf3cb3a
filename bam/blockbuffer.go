// Copyright ©2022 The htsgo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"fmt"

	"github.com/htsgo/hts/bgzf"
)

// A BlockBuffer packs serialized records into a fixed capacity buffer
// sized for a BGZF block payload, so a full buffer can be handed to a
// block compressor as is.
type BlockBuffer struct {
	data []byte
}

// NewBlockBuffer returns a BlockBuffer with the default capacity,
// bgzf.BlockSize.
func NewBlockBuffer() *BlockBuffer {
	return &BlockBuffer{data: make([]byte, 0, bgzf.BlockSize)}
}

// NewBlockBufferSize returns a BlockBuffer with the given capacity in
// bytes. Negative capacities are rejected.
func NewBlockBufferSize(size int) (*BlockBuffer, error) {
	if size < 0 {
		return nil, fmt.Errorf("bam: negative block buffer capacity: %d", size)
	}
	return &BlockBuffer{data: make([]byte, 0, size)}, nil
}

// Write appends the wire representation of r to the buffer and returns
// the number of bytes written. When the record does not fit in the
// remaining capacity, zero is returned and the buffer is unchanged.
func (b *BlockBuffer) Write(r *Record) int {
	n := int(r.blockSize) + 4
	if len(b.data)+n > cap(b.data) {
		return 0
	}
	b.data = r.appendBinary(b.data)
	return n
}

// Len returns the number of bytes written into the buffer.
func (b *BlockBuffer) Len() int { return len(b.data) }

// Cap returns the buffer's capacity.
func (b *BlockBuffer) Cap() int { return cap(b.data) }

// Reset discards all written records, retaining the buffer capacity.
func (b *BlockBuffer) Reset() { b.data = b.data[:0] }

// Bytes returns the written prefix of the buffer. The slice is shared
// with the buffer and is only valid until the next Write or Reset.
func (b *BlockBuffer) Bytes() []byte { return b.data }
