// Copyright ©2022 The htsgo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"bytes"

	"gopkg.in/check.v1"

	"github.com/htsgo/hts/bgzf"
)

func (s *S) TestBlockBufferDefault(c *check.C) {
	b := NewBlockBuffer()
	c.Check(b.Cap(), check.Equals, bgzf.BlockSize)
	c.Check(b.Len(), check.Equals, 0)
}

func (s *S) TestBlockBufferNegativeSize(c *check.C) {
	_, err := NewBlockBufferSize(-1)
	c.Check(err, check.ErrorMatches, `bam: negative block buffer capacity: -1`)
}

func (s *S) TestBlockBufferWrite(c *check.C) {
	r, err := NewRecord("q", -1, -1, -1, Unmapped, -1, -1)
	c.Assert(err, check.Equals, nil)
	wire, err := r.MarshalBinary()
	c.Assert(err, check.Equals, nil)

	b, err := NewBlockBufferSize(2*len(wire) + 1)
	c.Assert(err, check.Equals, nil)

	c.Check(b.Write(r), check.Equals, len(wire))
	c.Check(b.Write(r), check.Equals, len(wire))
	c.Check(b.Len(), check.Equals, 2*len(wire))

	// The third record does not fit; the buffer must be unchanged.
	c.Check(b.Write(r), check.Equals, 0)
	c.Check(b.Len(), check.Equals, 2*len(wire))
	c.Check(b.Bytes(), check.DeepEquals, append(append([]byte(nil), wire...), wire...))

	// The packed bytes parse back to the written records.
	it := NewIterator(b.Bytes())
	var n int
	for it.Next() {
		n++
	}
	c.Check(it.Error(), check.Equals, nil)
	c.Check(n, check.Equals, 2)

	b.Reset()
	c.Check(b.Len(), check.Equals, 0)
	c.Check(b.Write(r), check.Equals, len(wire))
	c.Check(bytes.Equal(b.Bytes(), wire), check.Equals, true)
}
