// Copyright ©2022 The htsgo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/htsgo/hts/internal/ascii"
)

// Record represents a BAM alignment record.
//
// The fixed width fields are plain fields; they cannot invalidate the
// record's size bookkeeping. The variable length fields are accessed
// through methods so that every mutation re-establishes the block size
// identity
//
//  block_size = 32 + l_read_name + 4·n_cigar_op + ⌈l_seq/2⌉ + l_seq + len(tags)
//
// before the record changes. A reference or mate reference ID of -1
// means unset, as does a position of -1.
type Record struct {
	RefID     int32
	Pos       int32
	MapQ      byte
	Bin       uint16
	Flags     Flags
	MateRefID int32
	MatePos   int32
	TempLen   int32

	name  []byte
	cigar Cigar
	seq   Seq
	qual  []byte
	tags  []byte

	blockSize uint32
}

// NewRecord returns a Record with the given name and fixed fields and
// an empty cigar, sequence and tag set. The mapping quality defaults to
// 255 (unknown) when mapQ is negative.
func NewRecord(name string, refID, pos int32, mapQ int, flags Flags, mateRefID, matePos int32) (*Record, error) {
	if mapQ < 0 {
		mapQ = 0xff
	}
	if mapQ > 0xff {
		return nil, fmt.Errorf("bam: mapping quality %d out of range", mapQ)
	}
	r := &Record{
		RefID:     refID,
		Pos:       pos,
		MapQ:      byte(mapQ),
		Flags:     flags,
		MateRefID: mateRefID,
		MatePos:   matePos,
	}
	r.blockSize = fixedRemainder + 1
	if err := r.SetName(name); err != nil {
		return nil, err
	}
	return r, nil
}

// blockSizeFor returns the block size for the given variable field
// lengths, rejecting totals that do not fit the 32 bit wire field.
func blockSizeFor(nameLen, cigarOps, seqBytes, qualLen, tagsLen int) (uint32, error) {
	n := int64(fixedRemainder) + int64(nameLen) + 1 +
		4*int64(cigarOps) +
		int64(seqBytes) +
		int64(qualLen) +
		int64(tagsLen)
	if n > math.MaxUint32 {
		return 0, errRecordTooLarge
	}
	return uint32(n), nil
}

// BlockSize returns the record's block_size, the number of bytes of
// its wire representation excluding the leading length field itself.
func (r *Record) BlockSize() uint32 { return r.blockSize }

// Name returns the read name.
func (r *Record) Name() string { return string(r.name) }

// SetName sets the read name. The name must be ASCII and no longer
// than 254 bytes; the empty name is allowed.
func (r *Record) SetName(name string) error {
	if len(name) > maxNameLen {
		return fmt.Errorf("bam: read name longer than %d bytes", maxNameLen)
	}
	if !ascii.ValidString(name) {
		return fmt.Errorf("bam: read name %q is not ASCII", name)
	}
	bs, err := blockSizeFor(len(name), len(r.cigar), len(r.seq.Seq), len(r.qual), len(r.tags))
	if err != nil {
		return err
	}
	r.name = append(r.name[:0], name...)
	r.blockSize = bs
	return nil
}

// Cigar returns the record's CIGAR operations. When the inline CIGAR
// is the long-CIGAR placeholder, two operations starting with a soft
// clip spanning the whole sequence, the real CIGAR lives in a CG tag
// and ErrLongCigar is returned. The returned slice is shared with the
// record; it must not be modified.
func (r *Record) Cigar() (Cigar, error) {
	if len(r.cigar) == 2 && r.cigar[0].Type() == CigarSoftClipped && r.cigar[0].Len() == r.seq.Length {
		return nil, ErrLongCigar
	}
	return r.cigar, nil
}

// SetCigar sets the record's CIGAR operations. The operation count
// must fit the 16 bit n_cigar_op wire field. The slice is retained by
// the record.
func (r *Record) SetCigar(c Cigar) error {
	if len(c) > maxInlineCigarOps {
		return ErrLongCigar
	}
	bs, err := blockSizeFor(len(r.name), len(c), len(r.seq.Seq), len(r.qual), len(r.tags))
	if err != nil {
		return err
	}
	r.cigar = c
	r.blockSize = bs
	return nil
}

// Seq returns the record's packed sequence. The backing store is
// shared with the record.
func (r *Record) Seq() Seq { return r.seq }

// Qual returns the record's per-base quality scores, Phred scaled with
// no offset. The slice is shared with the record.
func (r *Record) Qual() []byte { return r.qual }

// Sequence returns the ASCII decoding of the record's packed sequence.
func (r *Record) Sequence() string { return string(r.seq.Expand()) }

// SetSequence packs and sets the sequence from an ASCII IUPAC string
// and sets the matching qualities. A nil qual fills the qualities with
// 0xff, the missing-quality marker; otherwise qual must have the same
// length as the sequence and is retained by the record.
func (r *Record) SetSequence(seq string, qual []byte) error {
	if qual != nil && len(qual) != len(seq) {
		return fmt.Errorf("bam: sequence/quality length mismatch: %d != %d", len(seq), len(qual))
	}
	ns, err := NewSeq([]byte(seq))
	if err != nil {
		return err
	}
	bs, err := blockSizeFor(len(r.name), len(r.cigar), len(ns.Seq), len(seq), len(r.tags))
	if err != nil {
		return err
	}
	if qual == nil {
		qual = make([]byte, len(seq))
		for i := range qual {
			qual[i] = 0xff
		}
	}
	r.seq = ns
	r.qual = qual
	r.blockSize = bs
	return nil
}

// TagBytes returns the record's raw auxiliary field data. The slice is
// shared with the record.
func (r *Record) TagBytes() []byte { return r.tags }

// SetTagBytes replaces the record's raw auxiliary field data. The
// slice is retained by the record.
func (r *Record) SetTagBytes(tags []byte) error {
	bs, err := blockSizeFor(len(r.name), len(r.cigar), len(r.seq.Seq), len(r.qual), len(tags))
	if err != nil {
		return err
	}
	r.tags = tags
	r.blockSize = bs
	return nil
}

// GetTag returns the decoded native value of the auxiliary field
// labelled t. ErrTagNotFound is returned when no field matches.
func (r *Record) GetTag(t Tag) (interface{}, error) {
	a, err := r.auxField(t)
	if err != nil {
		return nil, err
	}
	return a.Value()
}

// auxField returns the Aux view of the field labelled t within the
// record's tag data.
func (r *Record) auxField(t Tag) (Aux, error) {
	i, err := findAux(r.tags, t)
	if err != nil {
		return nil, err
	}
	if i < 0 {
		return nil, ErrTagNotFound
	}
	end, err := skipAux(r.tags, i)
	if err != nil {
		return nil, err
	}
	return Aux(r.tags[i:end:end]), nil
}

// SetTag sets the auxiliary field labelled t to value, deriving the
// value type from the SAMtags defaults for the tag, or failing that
// from the value's native kind. An existing field with the same tag is
// replaced.
func (r *Record) SetTag(t Tag, value interface{}) error {
	vt, err := valueType(t, value)
	if err != nil {
		return err
	}
	return r.SetTagAs(t, vt, value)
}

// SetTagAs sets the auxiliary field labelled t to value using the
// given value type. The value type is one character, or two for 'B'
// arrays whose second character is the subtype. An existing field with
// the same tag is replaced.
func (r *Record) SetTagAs(t Tag, vt string, value interface{}) error {
	a, err := NewAux(t, vt, value)
	if err != nil {
		return err
	}
	return r.replaceTag(t, a)
}

// DeleteTag removes the auxiliary field labelled t. Removing an absent
// tag is not an error.
func (r *Record) DeleteTag(t Tag) error {
	return r.replaceTag(t, nil)
}

// replaceTag rebuilds the record's tag data with the field labelled t
// removed and tlv, when non-nil, appended. The replacement is built
// completely before the record is touched so a failed mutation leaves
// the record unchanged. Unrelated fields keep their order; a replaced
// field moves to the end, which is legal since field order carries no
// meaning.
func (r *Record) replaceTag(t Tag, tlv Aux) error {
	i, err := findAux(r.tags, t)
	if err != nil {
		return err
	}
	prefix, suffix := r.tags, []byte(nil)
	if i >= 0 {
		end, err := skipAux(r.tags, i)
		if err != nil {
			return err
		}
		prefix, suffix = r.tags[:i], r.tags[end:]
	}
	bs, err := blockSizeFor(len(r.name), len(r.cigar), len(r.seq.Seq), len(r.qual), len(prefix)+len(suffix)+len(tlv))
	if err != nil {
		return err
	}
	tags := make([]byte, 0, len(prefix)+len(suffix)+len(tlv))
	tags = append(tags, prefix...)
	tags = append(tags, suffix...)
	tags = append(tags, tlv...)
	r.tags = tags
	r.blockSize = bs
	return nil
}

// MarshalBinary returns the wire representation of the record, the
// little-endian fixed fields followed by the NUL terminated name, the
// CIGAR operation words, the packed sequence, the qualities and the
// auxiliary data. The result is block_size+4 bytes long.
func (r *Record) MarshalBinary() ([]byte, error) {
	return r.appendBinary(make([]byte, 0, r.blockSize+4)), nil
}

func (r *Record) appendBinary(dst []byte) []byte {
	var buf [4]byte

	binary.LittleEndian.PutUint32(buf[:], r.blockSize)
	dst = append(dst, buf[:]...)
	binary.LittleEndian.PutUint32(buf[:], uint32(r.RefID))
	dst = append(dst, buf[:]...)
	binary.LittleEndian.PutUint32(buf[:], uint32(r.Pos))
	dst = append(dst, buf[:]...)
	dst = append(dst, byte(len(r.name)+1), r.MapQ)
	binary.LittleEndian.PutUint16(buf[:2], r.Bin)
	dst = append(dst, buf[:2]...)
	binary.LittleEndian.PutUint16(buf[:2], uint16(len(r.cigar)))
	dst = append(dst, buf[:2]...)
	binary.LittleEndian.PutUint16(buf[:2], uint16(r.Flags))
	dst = append(dst, buf[:2]...)
	binary.LittleEndian.PutUint32(buf[:], uint32(r.seq.Length))
	dst = append(dst, buf[:]...)
	binary.LittleEndian.PutUint32(buf[:], uint32(r.MateRefID))
	dst = append(dst, buf[:]...)
	binary.LittleEndian.PutUint32(buf[:], uint32(r.MatePos))
	dst = append(dst, buf[:]...)
	binary.LittleEndian.PutUint32(buf[:], uint32(r.TempLen))
	dst = append(dst, buf[:]...)

	dst = append(dst, r.name...)
	dst = append(dst, 0)
	dst = r.cigar.appendBytes(dst)
	dst = append(dst, doublets(r.seq.Seq).Bytes()...)
	dst = append(dst, r.qual...)
	dst = append(dst, r.tags...)
	return dst
}

// String returns a string representation of the Record.
func (r *Record) String() string {
	return fmt.Sprintf("%s %v %v %d %d:%d %d:%d %d %s %v %v",
		r.name,
		r.Flags,
		r.cigar,
		r.MapQ,
		r.RefID,
		r.Pos,
		r.MateRefID,
		r.MatePos,
		r.TempLen,
		r.seq.Expand(),
		r.qual,
		r.tags,
	)
}
