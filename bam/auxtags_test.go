// Copyright ©2022 The htsgo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"gopkg.in/check.v1"
)

func newTagRecord(c *check.C) *Record {
	r, err := NewRecord("q", -1, -1, -1, Unmapped, -1, -1)
	c.Assert(err, check.Equals, nil)
	return r
}

func (s *S) TestSetTagInsert(c *check.C) {
	r := newTagRecord(c)
	before := r.BlockSize()

	// NM defaults to 'i' from the SAMtags table.
	c.Assert(r.SetTag(NewTag("NM"), 2), check.Equals, nil)
	c.Check(r.TagBytes(), check.DeepEquals, []byte("NMi\x02\x00\x00\x00"))
	c.Check(r.BlockSize(), check.Equals, before+7)

	v, err := r.GetTag(NewTag("NM"))
	c.Check(err, check.Equals, nil)
	c.Check(v, check.Equals, int32(2))
}

func (s *S) TestSetTagReplace(c *check.C) {
	r := newTagRecord(c)
	c.Assert(r.SetTag(NewTag("NM"), 2), check.Equals, nil)
	before := r.BlockSize()

	c.Assert(r.SetTag(NewTag("NM"), 5), check.Equals, nil)
	c.Check(r.BlockSize(), check.Equals, before)
	c.Check(r.TagBytes(), check.DeepEquals, []byte("NMi\x05\x00\x00\x00"))

	v, err := r.GetTag(NewTag("NM"))
	c.Check(err, check.Equals, nil)
	c.Check(v, check.Equals, int32(5))
}

func (s *S) TestSetTagReplacePreservesOthers(c *check.C) {
	r := newTagRecord(c)
	c.Assert(r.SetTag(NewTag("NM"), 1), check.Equals, nil)
	c.Assert(r.SetTag(NewTag("MD"), "10A5"), check.Equals, nil)
	c.Assert(r.SetTag(NewTag("AS"), 27), check.Equals, nil)

	// The replaced tag moves to the end; unrelated tags keep their
	// order and there is no duplicate.
	c.Assert(r.SetTag(NewTag("MD"), "16"), check.Equals, nil)
	c.Check(r.TagBytes(), check.DeepEquals,
		[]byte("NMi\x01\x00\x00\x00ASi\x1b\x00\x00\x00MDZ16\x00"))

	v, err := r.GetTag(NewTag("MD"))
	c.Check(err, check.Equals, nil)
	c.Check(v, check.Equals, "16")
}

func (s *S) TestGetTagAbsent(c *check.C) {
	r := newTagRecord(c)
	_, err := r.GetTag(NewTag("XX"))
	c.Check(err, check.Equals, ErrTagNotFound)

	c.Assert(r.SetTag(NewTag("NM"), 0), check.Equals, nil)
	_, err = r.GetTag(NewTag("XX"))
	c.Check(err, check.Equals, ErrTagNotFound)
}

func (s *S) TestDeleteTag(c *check.C) {
	r := newTagRecord(c)
	c.Assert(r.SetTag(NewTag("NM"), 1), check.Equals, nil)
	c.Assert(r.SetTag(NewTag("MD"), "16"), check.Equals, nil)
	before := r.BlockSize()

	c.Assert(r.DeleteTag(NewTag("NM")), check.Equals, nil)
	c.Check(r.BlockSize(), check.Equals, before-7)
	c.Check(r.TagBytes(), check.DeepEquals, []byte("MDZ16\x00"))
	_, err := r.GetTag(NewTag("NM"))
	c.Check(err, check.Equals, ErrTagNotFound)

	// Deleting an absent tag is a no-op.
	c.Assert(r.DeleteTag(NewTag("NM")), check.Equals, nil)
	c.Check(r.BlockSize(), check.Equals, before-7)
}

func (s *S) TestSetTagTypes(c *check.C) {
	r := newTagRecord(c)
	for _, test := range []struct {
		tag   string
		vt    string
		value interface{}
		want  interface{}
	}{
		{tag: "Xa", vt: "A", value: "x", want: "x"},
		{tag: "Xc", vt: "c", value: -5, want: int8(-5)},
		{tag: "XC", vt: "C", value: 200, want: uint8(200)},
		{tag: "Xs", vt: "s", value: -30000, want: int16(-30000)},
		{tag: "XS", vt: "S", value: 60000, want: uint16(60000)},
		{tag: "Xi", vt: "i", value: -70000, want: int32(-70000)},
		{tag: "XI", vt: "I", value: uint32(3000000000), want: uint32(3000000000)},
		{tag: "Xf", vt: "f", value: float32(1.5), want: float32(1.5)},
		{tag: "Xd", vt: "d", value: 2.5, want: 2.5},
		{tag: "Xz", vt: "Z", value: "text", want: "text"},
		{tag: "Xb", vt: "B", value: []int16{-1, 2, -3}, want: []int16{-1, 2, -3}},
		{tag: "XB", vt: "BS", value: []uint16{1, 2, 3}, want: []uint16{1, 2, 3}},
		{tag: "Xr", vt: "B", value: []float32{0.5, -0.5}, want: []float32{0.5, -0.5}},
	} {
		t := NewTag(test.tag)
		c.Assert(r.SetTagAs(t, test.vt, test.value), check.Equals, nil, check.Commentf("tag: %v", t))
		v, err := r.GetTag(t)
		c.Assert(err, check.Equals, nil, check.Commentf("tag: %v", t))
		c.Check(v, check.DeepEquals, test.want, check.Commentf("tag: %v", t))
	}
}

func (s *S) TestSetTagRangeErrors(c *check.C) {
	r := newTagRecord(c)
	for _, test := range []struct {
		vt    string
		value interface{}
	}{
		{vt: "c", value: 128},
		{vt: "C", value: -1},
		{vt: "s", value: 1 << 15},
		{vt: "S", value: -1},
		{vt: "i", value: int64(1) << 31},
		{vt: "I", value: -1},
		{vt: "A", value: "xy"},
		{vt: "A", value: 7},
		{vt: "Z", value: 7},
		{vt: "Q", value: 7},
	} {
		err := r.SetTagAs(NewTag("XX"), test.vt, test.value)
		c.Check(err, check.NotNil, check.Commentf("type %q value %v", test.vt, test.value))
		// The failed mutation must not have touched the record.
		c.Check(len(r.TagBytes()), check.Equals, 0)
	}
}

func (s *S) TestSetTagInferredTypes(c *check.C) {
	r := newTagRecord(c)

	// Unknown tags derive their type from the value kind.
	c.Assert(r.SetTag(NewTag("X0"), "str"), check.Equals, nil)
	c.Assert(r.SetTag(NewTag("X1"), 3), check.Equals, nil)
	c.Assert(r.SetTag(NewTag("X2"), 0.25), check.Equals, nil)
	c.Assert(r.SetTag(NewTag("X3"), []uint32{9}), check.Equals, nil)

	v, err := r.GetTag(NewTag("X0"))
	c.Check(err, check.Equals, nil)
	c.Check(v, check.Equals, "str")
	v, err = r.GetTag(NewTag("X1"))
	c.Check(err, check.Equals, nil)
	c.Check(v, check.Equals, uint32(3))
	v, err = r.GetTag(NewTag("X2"))
	c.Check(err, check.Equals, nil)
	c.Check(v, check.Equals, float32(0.25))
	v, err = r.GetTag(NewTag("X3"))
	c.Check(err, check.Equals, nil)
	c.Check(v, check.DeepEquals, []uint32{9})

	// TS defaults to 'A', ML to a u8 array, CG to a u32 array.
	c.Assert(r.SetTag(NewTag("TS"), "+"), check.Equals, nil)
	a, err := r.auxField(NewTag("TS"))
	c.Assert(err, check.Equals, nil)
	c.Check(a.Type(), check.Equals, byte('A'))

	c.Assert(r.SetTag(NewTag("ML"), []byte{1, 2}), check.Equals, nil)
	a, err = r.auxField(NewTag("ML"))
	c.Assert(err, check.Equals, nil)
	c.Check(a.Type(), check.Equals, byte('B'))
	c.Check(a[3], check.Equals, byte('C'))

	c.Assert(r.SetTag(NewTag("CG"), []uint32{1 << 10}), check.Equals, nil)
	a, err = r.auxField(NewTag("CG"))
	c.Assert(err, check.Equals, nil)
	c.Check(a[3], check.Equals, byte('I'))
}

func (s *S) TestHexTagNotImplemented(c *check.C) {
	r := newTagRecord(c)
	c.Check(r.SetTagAs(NewTag("XH"), "H", "1AE3"), check.Equals, ErrNotImplemented)

	c.Assert(r.SetTagBytes([]byte("XHH1AE3\x00")), check.Equals, nil)
	_, err := r.GetTag(NewTag("XH"))
	c.Check(err, check.Equals, ErrNotImplemented)

	// Scanning still skips over 'H' fields to later tags.
	c.Assert(r.SetTagBytes([]byte("XHH1AE3\x00NMi\x02\x00\x00\x00")), check.Equals, nil)
	v, err := r.GetTag(NewTag("NM"))
	c.Check(err, check.Equals, nil)
	c.Check(v, check.Equals, int32(2))
}

func (s *S) TestTruncatedTags(c *check.C) {
	r := newTagRecord(c)
	for _, tags := range [][]byte{
		[]byte("N"),                    // Short of a whole tag.
		[]byte("NM"),                   // Missing type.
		[]byte("NMi\x02\x00"),          // Short fixed width value.
		[]byte("MDZ16"),                // Unterminated string.
		[]byte("XBBi\x02\x00\x00\x00\x01\x00\x00\x00"), // Array shorter than its count.
		[]byte("NMQ\x00"),              // Unknown value type.
	} {
		c.Assert(r.SetTagBytes(tags), check.Equals, nil)
		_, err := r.GetTag(NewTag("ZZ"))
		c.Check(err, check.NotNil, check.Commentf("tags: %q", tags))
	}
}

func (s *S) TestAuxArrayRawBytes(c *check.C) {
	r := newTagRecord(c)
	// A []byte payload with an explicit subtype is reinterpreted raw.
	c.Assert(r.SetTagAs(NewTag("XB"), "BS", []byte{1, 0, 2, 0}), check.Equals, nil)
	v, err := r.GetTag(NewTag("XB"))
	c.Check(err, check.Equals, nil)
	c.Check(v, check.DeepEquals, []uint16{1, 2})

	// A length that is not a multiple of the subtype width is a
	// shape error.
	err = r.SetTagAs(NewTag("XB"), "BS", []byte{1, 0, 2})
	c.Check(err, check.ErrorMatches, `bam: cannot set tag XB with type 'BS': buffer size 3 not a multiple of 2`)
}
