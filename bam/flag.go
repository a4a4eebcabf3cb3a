// Copyright ©2022 The htsgo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

// A Flags represents a BAM record's alignment FLAG field.
type Flags uint16

const (
	Paired        Flags = 1 << iota // The read is paired in sequencing, no matter whether it is mapped in a pair.
	ProperPair                      // The read is mapped in a proper pair.
	Unmapped                        // The read itself is unmapped; conflictive with ProperPair.
	MateUnmapped                    // The mate is unmapped.
	Reverse                         // The read is mapped to the reverse strand.
	MateReverse                     // The mate is mapped to the reverse strand.
	Read1                           // This is read1.
	Read2                           // This is read2.
	Secondary                       // Not primary alignment.
	QCFail                          // QC failure.
	Duplicate                       // Optical or PCR duplicate.
	Supplementary                   // Supplementary alignment, indicates alignment is part of a chimeric alignment.
)

// String representation of BAM alignment flags:
//  0x001 - p - Paired
//  0x002 - P - ProperPair
//  0x004 - u - Unmapped
//  0x008 - U - MateUnmapped
//  0x010 - r - Reverse
//  0x020 - R - MateReverse
//  0x040 - 1 - Read1
//  0x080 - 2 - Read2
//  0x100 - s - Secondary
//  0x200 - f - QCFail
//  0x400 - d - Duplicate
//  0x800 - S - Supplementary
//
// Note that flag bits are represented high order to the right.
func (f Flags) String() string {
	// If 0x01 is unset, no assumptions can be made about 0x02, 0x08, 0x20, 0x40 and 0x80
	const pairedMask = ProperPair | MateUnmapped | MateReverse | Read1 | Read2
	if f&1 == 0 {
		f &^= pairedMask
	}

	const flags = "pPuUrR12sfdS"

	b := make([]byte, len(flags))
	for i, c := range flags {
		if f&(1<<uint(i)) != 0 {
			b[i] = byte(c)
		} else {
			b[i] = '-'
		}
	}

	return string(b)
}

// Paired returns whether the read is paired in sequencing.
func (r *Record) Paired() bool { return r.Flags&Paired != 0 }

// ProperPair returns whether the read is mapped in a proper pair.
func (r *Record) ProperPair() bool { return r.Flags&ProperPair != 0 }

// Unmapped returns whether the read itself is unmapped.
func (r *Record) Unmapped() bool { return r.Flags&Unmapped != 0 }

// MateUnmapped returns whether the mate is unmapped.
func (r *Record) MateUnmapped() bool { return r.Flags&MateUnmapped != 0 }

// Reverse returns whether the read is mapped to the reverse strand.
func (r *Record) Reverse() bool { return r.Flags&Reverse != 0 }

// MateReverse returns whether the mate is mapped to the reverse strand.
func (r *Record) MateReverse() bool { return r.Flags&MateReverse != 0 }

// Read1 returns whether the read is the first segment of the template.
func (r *Record) Read1() bool { return r.Flags&Read1 != 0 }

// Read2 returns whether the read is the last segment of the template.
func (r *Record) Read2() bool { return r.Flags&Read2 != 0 }

// Secondary returns whether the alignment is not the primary alignment.
func (r *Record) Secondary() bool { return r.Flags&Secondary != 0 }

// QCFail returns whether the read fails quality checks.
func (r *Record) QCFail() bool { return r.Flags&QCFail != 0 }

// Duplicate returns whether the read is an optical or PCR duplicate.
func (r *Record) Duplicate() bool { return r.Flags&Duplicate != 0 }

// Supplementary returns whether the alignment is supplementary.
func (r *Record) Supplementary() bool { return r.Flags&Supplementary != 0 }
