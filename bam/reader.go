// Copyright ©2022 The htsgo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/htsgo/hts/internal/ascii"
)

// Iterator parses records from a buffer of concatenated BAM alignment
// records. Successive calls to the Next method will step through the
// records of the provided buffer. Iteration stops unrecoverably at the
// end of the buffer or the first error.
type Iterator struct {
	data []byte
	pos  int

	rec *Record
	err error
}

// NewIterator returns an Iterator to read records from data, which
// must hold zero or more complete serialized records. The buffer is
// borrowed for the lifetime of the iterator but each parsed Record
// owns its field data.
func NewIterator(data []byte) *Iterator {
	return &Iterator{data: data}
}

// Next advances the Iterator past the next record, which will then be
// available through the Record method. It returns false when the
// iteration stops, either by reaching the end of the input or an
// error. After Next returns false, the Error method will return any
// error that occurred during iteration, except that if it was io.EOF,
// Error will return nil.
func (i *Iterator) Next() bool {
	if i.err != nil {
		return false
	}
	if i.pos == len(i.data) {
		i.err = io.EOF
		return false
	}
	var n int
	i.rec, n, i.err = unmarshalRecord(i.data[i.pos:])
	if i.err != nil {
		return false
	}
	i.pos += n
	return true
}

// Error returns the first non-EOF error that was encountered by the
// Iterator.
func (i *Iterator) Error() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Record returns the most recent record read by a call to Next.
func (i *Iterator) Record() *Record { return i.rec }

// unmarshalRecord parses one record from the start of b, returning the
// record and the number of bytes it occupied. The record owns copies
// of all variable length data.
func unmarshalRecord(b []byte) (*Record, int, error) {
	if len(b) < fixedBytes {
		return nil, 0, ErrTruncated
	}
	buf := buffer{data: b}
	blockSize := buf.readUint32()
	if blockSize < fixedRemainder {
		return nil, 0, fmt.Errorf("bam: invalid block size %d", blockSize)
	}
	size := int64(blockSize) + 4
	if size > int64(len(b)) {
		return nil, 0, ErrTruncated
	}
	buf.data = b[:size]

	var rec Record
	rec.blockSize = blockSize
	rec.RefID = buf.readInt32()
	rec.Pos = buf.readInt32()
	nLen := int(buf.readUint8())
	rec.MapQ = buf.readUint8()
	rec.Bin = buf.readUint16()
	nCigar := int(buf.readUint16())
	rec.Flags = Flags(buf.readUint16())
	lSeq := int(buf.readUint32())
	rec.MateRefID = buf.readInt32()
	rec.MatePos = buf.readInt32()
	rec.TempLen = buf.readInt32()

	if nLen < 1 {
		return nil, 0, fmt.Errorf("bam: invalid read name length")
	}
	if int64(buf.len()) < int64(nLen)+4*int64(nCigar)+int64((lSeq+1)>>1)+int64(lSeq) {
		return nil, 0, ErrTruncated
	}

	name := buf.bytes(nLen - 1)
	if !ascii.Valid(name) {
		return nil, 0, fmt.Errorf("bam: read name %q is not ASCII", name)
	}
	rec.name = append([]byte(nil), name...)
	buf.discard(1) // Trailing NUL of the name.

	rec.cigar = readCigarOps(buf.bytes(nCigar * 4))
	rec.seq = seqFromBytes(buf.bytes((lSeq+1)>>1), lSeq)
	rec.qual = append([]byte(nil), buf.bytes(lSeq)...)
	rec.tags = append([]byte(nil), buf.bytes(buf.len())...)

	return &rec, int(size), nil
}

// len(cb) must be a multiple of 4.
func readCigarOps(cb []byte) Cigar {
	if len(cb) == 0 {
		return nil
	}
	co := make(Cigar, len(cb)/4)
	for i := range co {
		co[i] = CigarOp(binary.LittleEndian.Uint32(cb[i*4 : (i+1)*4]))
	}
	return co
}

// buffer is a light-weight little-endian read buffer.
type buffer struct {
	off  int
	data []byte
}

func (b *buffer) bytes(n int) []byte {
	s := b.off
	b.off += n
	return b.data[s:b.off]
}

func (b *buffer) len() int {
	return len(b.data) - b.off
}

func (b *buffer) discard(n int) {
	b.off += n
}

func (b *buffer) readUint8() uint8 {
	b.off++
	return b.data[b.off-1]
}

func (b *buffer) readUint16() uint16 {
	return binary.LittleEndian.Uint16(b.bytes(2))
}

func (b *buffer) readInt32() int32 {
	return int32(binary.LittleEndian.Uint32(b.bytes(4)))
}

func (b *buffer) readUint32() uint32 {
	return binary.LittleEndian.Uint32(b.bytes(4))
}
