// Copyright ©2022 The htsgo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bam implements decoding, mutation and re-encoding of BAM
// alignment records as defined by the SAM format specification.
//
// The package works on raw byte buffers of concatenated records. BGZF
// block compression, file I/O, headers and reference dictionaries are
// handled by other layers; an Iterator walks an uncompressed buffer and
// yields Record values, and Record.MarshalBinary produces the exact
// wire bytes for onward block compression. A BlockBuffer batches
// serialized records up to a BGZF payload-sized byte limit.
package bam

import "errors"

const (
	// fixedBytes is the size of the fixed portion of a record on the
	// wire, block_size through tlen inclusive.
	fixedBytes = 36

	// fixedRemainder is fixedBytes without the leading block_size
	// field, the constant term of the block_size identity.
	fixedRemainder = 32

	// maxNameLen is the longest permitted read name. The on-disk
	// length byte includes the terminating NUL and must fit in eight
	// bits.
	maxNameLen = 254

	// maxInlineCigarOps is the largest operation count representable
	// in the record's 16 bit n_cigar_op field.
	maxInlineCigarOps = 0xffff
)

var (
	// ErrTruncated is returned when a buffer ends inside a record or
	// one of its variable-length fields.
	ErrTruncated = errors.New("bam: truncated record")

	// ErrTagNotFound is returned by tag lookup when no field matches
	// the requested tag.
	ErrTagNotFound = errors.New("bam: tag not present")

	// ErrLongCigar is returned when a record's CIGAR has been moved
	// to a CG tag because it exceeds the inline operation limit.
	ErrLongCigar = errors.New("bam: long cigar records not implemented")

	// ErrNotImplemented is returned for tag operations on the 'H'
	// hex-string value type.
	ErrNotImplemented = errors.New("bam: not implemented")

	errRecordTooLarge = errors.New("bam: record block size exceeds 32 bits")
)
