// Copyright ©2022 The htsgo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// CigarShift is the width in bits of the operation type field of a
// CIGAR operation word. The remaining 28 bits hold the length.
const CigarShift = 4

// maxCigarLen is the largest operation length representable in the 28
// bit length field.
const maxCigarLen = 1<<28 - 1

// Cigar is a set of CIGAR operations.
type Cigar []CigarOp

// ParseCigar returns a Cigar parsed from the provided text. The text is
// a concatenation of decimal counts each followed by an operation
// character; the empty string is the empty Cigar.
func ParseCigar(b []byte) (Cigar, error) {
	// Each operation needs at least one digit and one op character,
	// so the op count is bounded by half the text length. Allocate
	// that up front and reslice on completion.
	c := make(Cigar, 0, len(b)/2)
	for i := 0; i < len(b); {
		j := i
		n := 0
		for ; j < len(b) && '0' <= b[j] && b[j] <= '9'; j++ {
			n = n*10 + int(b[j]-'0')
			if n > maxCigarLen {
				return nil, fmt.Errorf("bam: invalid cigar operation count at %d: exceeds %d", i, int64(maxCigarLen))
			}
		}
		if j == i {
			return nil, fmt.Errorf("bam: invalid cigar text %q: missing count at %d", b, i)
		}
		if j == len(b) {
			return nil, fmt.Errorf("bam: truncated cigar text %q", b)
		}
		op := cigarOpTypeLookup[b[j]]
		if op == lastCigar {
			return nil, fmt.Errorf("bam: invalid cigar operation %q", b[j])
		}
		c = append(c, NewCigarOp(op, n))
		i = j + 1
	}
	return c, nil
}

// CigarFromPairs returns a Cigar built from ordered (operation, length)
// pairs. The operation must be in [0,9] and the length in [0,1<<28-1].
func CigarFromPairs(pairs [][2]int) (Cigar, error) {
	c := make(Cigar, len(pairs))
	for i, p := range pairs {
		if p[0] < 0 || p[0] >= int(lastCigar) {
			return nil, fmt.Errorf("bam: cigar operation %d out of range", p[0])
		}
		if p[1] < 0 || p[1] > maxCigarLen {
			return nil, fmt.Errorf("bam: cigar operation length %d out of range", p[1])
		}
		c[i] = NewCigarOp(CigarOpType(p[0]), p[1])
	}
	return c, nil
}

// CigarFromBytes returns a Cigar decoded from a buffer of little-endian
// 32 bit operation words. The buffer length must be a multiple of 4.
func CigarFromBytes(b []byte) (Cigar, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("bam: cigar buffer length %d is not a multiple of 4", len(b))
	}
	c := make(Cigar, len(b)/4)
	for i := range c {
		c[i] = CigarOp(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return c, nil
}

// String returns the CIGAR text for c. The empty Cigar renders as the
// empty string.
func (c Cigar) String() string {
	// The widest operation length is nine decimal digits, so ten
	// bytes per operation bounds the text.
	b := make([]byte, 0, len(c)*10)
	for _, co := range c {
		b = strconv.AppendInt(b, int64(co.Len()), 10)
		b = append(b, co.Type().byteRepr())
	}
	return string(b)
}

// Equal returns whether c and other hold identical operation words.
func (c Cigar) Equal(other Cigar) bool {
	if len(c) != len(other) {
		return false
	}
	for i, co := range c {
		if co != other[i] {
			return false
		}
	}
	return true
}

// Bytes returns the little-endian wire encoding of c in a fresh buffer.
func (c Cigar) Bytes() []byte {
	return c.appendBytes(make([]byte, 0, len(c)*4))
}

func (c Cigar) appendBytes(dst []byte) []byte {
	var buf [4]byte
	for _, co := range c {
		binary.LittleEndian.PutUint32(buf[:], uint32(co))
		dst = append(dst, buf[:]...)
	}
	return dst
}

// Lengths returns the number of reference and read bases described by
// the Cigar.
func (c Cigar) Lengths() (ref, read int) {
	var con Consume
	for _, co := range c {
		con = co.Type().Consumes()
		if co.Type() != CigarBack {
			ref += co.Len() * con.Reference
		}
		read += co.Len() * con.Query
	}
	return ref, read
}

// IsValid returns whether the CIGAR string is valid for a record of the
// given sequence length. Validity is defined by the sum of query
// consuming operations matching the given length, clipping operations
// only being present at the ends of alignments, and that CigarBack
// operations only result in query-consuming positions at or right of
// the start of the alignment.
func (c Cigar) IsValid(length int) bool {
	var pos int
	for i, co := range c {
		ct := co.Type()
		if ct == CigarHardClipped && i != 0 && i != len(c)-1 {
			return false
		}
		if ct == CigarSoftClipped && i != 0 && i != len(c)-1 {
			if c[i-1].Type() != CigarHardClipped && c[i+1].Type() != CigarHardClipped {
				return false
			}
		}
		con := ct.Consumes()
		if pos < 0 && con.Query != 0 {
			return false
		}
		length -= co.Len() * con.Query
		pos += co.Len() * con.Reference
	}
	return length == 0
}

// CigarOp is a single CIGAR operation including the operation type and
// the length of the operation.
type CigarOp uint32

// NewCigarOp returns a CIGAR operation of the specified type with
// length n. The values are not range checked; use MakeCigarOp for
// checked construction.
func NewCigarOp(t CigarOpType, n int) CigarOp {
	return CigarOp(t) | CigarOp(n)<<CigarShift
}

// MakeCigarOp returns a CIGAR operation of the specified type with
// length n, confirming that both are within their wire field ranges.
func MakeCigarOp(t CigarOpType, n int) (CigarOp, error) {
	if t >= lastCigar {
		return 0, fmt.Errorf("bam: cigar operation %d out of range", t)
	}
	if n < 0 || n > maxCigarLen {
		return 0, fmt.Errorf("bam: cigar operation length %d out of range", n)
	}
	return NewCigarOp(t, n), nil
}

// Type returns the type of the CIGAR operation for the CigarOp.
func (co CigarOp) Type() CigarOpType { return CigarOpType(co & 0xf) }

// Len returns the number of positions affected by the CigarOp CIGAR operation.
func (co CigarOp) Len() int { return int(co >> CigarShift) }

// String returns the string representation of the CigarOp.
func (co CigarOp) String() string { return fmt.Sprintf("%d%s", co.Len(), co.Type().String()) }

// A CigarOpType represents the type of operation described by a CigarOp.
type CigarOpType byte

const (
	CigarMatch       CigarOpType = iota // Alignment match (can be a sequence match or mismatch).
	CigarInsertion                      // Insertion to the reference.
	CigarDeletion                       // Deletion from the reference.
	CigarSkipped                        // Skipped region from the reference.
	CigarSoftClipped                    // Soft clipping (clipped sequences present in SEQ).
	CigarHardClipped                    // Hard clipping (clipped sequences NOT present in SEQ).
	CigarPadded                         // Padding (silent deletion from padded reference).
	CigarEqual                          // Sequence match.
	CigarMismatch                       // Sequence mismatch.
	CigarBack                           // Skip backwards.
	lastCigar
)

var cigarOps = []string{"M", "I", "D", "N", "S", "H", "P", "=", "X", "B", "?"}

// String returns the string representation of a CigarOpType.
func (ct CigarOpType) String() string {
	if ct > lastCigar {
		ct = lastCigar
	}
	return cigarOps[ct]
}

func (ct CigarOpType) byteRepr() byte {
	if ct > lastCigar {
		ct = lastCigar
	}
	return cigarOps[ct][0]
}

// Consumes returns the CIGAR operation alignment consumption
// characteristics for the CigarOpType.
//
// The Consume values for each of the CigarOpTypes is as follows:
//
//                    Query  Reference
//  CigarMatch          1        1
//  CigarInsertion      1        0
//  CigarDeletion       0        1
//  CigarSkipped        0        1
//  CigarSoftClipped    1        0
//  CigarHardClipped    0        0
//  CigarPadded         0        0
//  CigarEqual          1        1
//  CigarMismatch       1        1
//  CigarBack           0       -1
//
func (ct CigarOpType) Consumes() Consume { return consume[ct] }

// Consume describes how CIGAR operations consume alignment bases.
type Consume struct {
	Query, Reference int
}

var consume = []Consume{
	CigarMatch:       {Query: 1, Reference: 1},
	CigarInsertion:   {Query: 1, Reference: 0},
	CigarDeletion:    {Query: 0, Reference: 1},
	CigarSkipped:     {Query: 0, Reference: 1},
	CigarSoftClipped: {Query: 1, Reference: 0},
	CigarHardClipped: {Query: 0, Reference: 0},
	CigarPadded:      {Query: 0, Reference: 0},
	CigarEqual:       {Query: 1, Reference: 1},
	CigarMismatch:    {Query: 1, Reference: 1},
	CigarBack:        {Query: 0, Reference: -1},
	lastCigar:        {},
}

var cigarOpTypeLookup [256]CigarOpType

func init() {
	for i := range cigarOpTypeLookup {
		cigarOpTypeLookup[i] = lastCigar
	}
	for op, c := range []byte{'M', 'I', 'D', 'N', 'S', 'H', 'P', '=', 'X', 'B'} {
		cigarOpTypeLookup[c] = CigarOpType(op)
	}
}
