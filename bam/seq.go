// Copyright ©2022 The htsgo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// Doublet is a nybble-encoded pair of nucleotide bases. The first base
// of the pair occupies the high-order nybble.
type Doublet byte

// Seq is a nybble-encoded nucleotide sequence.
type Seq struct {
	Length int
	Seq    []Doublet
}

// iupac is the 4 bit nucleotide alphabet in code order; the packed code
// of a base is its index here.
const iupac = "=ACMGRSVTWYHKDBN"

var (
	n16TableRev [16]byte
	n16Table    [256]int8

	// decodePairs maps one packed byte to the two ASCII bases it
	// encodes, stored little-endian so a decode loop can write a
	// uint16 per input byte.
	decodePairs [256]uint16
)

func init() {
	for i := range n16Table {
		n16Table[i] = -1
	}
	for i := 0; i < len(iupac); i++ {
		n16TableRev[i] = iupac[i]
		n16Table[iupac[i]] = int8(i)
	}
	for i := range decodePairs {
		decodePairs[i] = uint16(n16TableRev[i&0xf])<<8 | uint16(n16TableRev[i>>4])
	}
}

// NewSeq returns a new Seq packing the given ASCII IUPAC bases two to a
// byte, first base in the high nybble. A character outside the IUPAC
// alphabet is an error. When the length is odd the trailing low nybble
// is zero.
func NewSeq(s []byte) (Seq, error) {
	ns := make([]Doublet, (len(s)+1)>>1)
	for i := 0; i < len(s)-1; i += 2 {
		hi := n16Table[s[i]]
		if hi < 0 {
			return Seq{}, fmt.Errorf("bam: not a IUPAC character: %q", s[i])
		}
		lo := n16Table[s[i+1]]
		if lo < 0 {
			return Seq{}, fmt.Errorf("bam: not a IUPAC character: %q", s[i+1])
		}
		ns[i>>1] = Doublet(hi)<<4 | Doublet(lo)
	}
	if len(s)&1 != 0 {
		hi := n16Table[s[len(s)-1]]
		if hi < 0 {
			return Seq{}, fmt.Errorf("bam: not a IUPAC character: %q", s[len(s)-1])
		}
		ns[len(ns)-1] = Doublet(hi) << 4
	}
	return Seq{Length: len(s), Seq: ns}, nil
}

// seqFromBytes returns a Seq over the packed wire bytes of a sequence
// of the given base count.
func seqFromBytes(b []byte, length int) Seq {
	ns := make([]Doublet, len(b))
	copy(doublets(ns).Bytes(), b)
	return Seq{Length: length, Seq: ns}
}

// Expand returns the ASCII encoded form of the receiver. Decoding
// writes two bases per packed byte and truncates the overshoot when
// the length is odd.
func (ns Seq) Expand() []byte {
	s := make([]byte, len(ns.Seq)*2)
	for i, d := range ns.Seq {
		binary.LittleEndian.PutUint16(s[i*2:], decodePairs[d])
	}
	return s[:ns.Length]
}

type doublets []Doublet

func (np doublets) Bytes() []byte { return *(*[]byte)(unsafe.Pointer(&np)) }
