// Copyright ©2022 The htsgo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzzbam

import (
	"bytes"

	"github.com/htsgo/hts/bam"
)

func Fuzz(data []byte) int {
	it := bam.NewIterator(data)
	out := make([]byte, 0, len(data))
	for it.Next() {
		b, err := it.Record().MarshalBinary()
		if err != nil {
			panic(err)
		}
		out = append(out, b...)
	}
	if it.Error() != nil {
		return 0
	}
	// The whole buffer parsed; re-serialization must reproduce it.
	if !bytes.Equal(out, data) {
		panic("round trip mismatch")
	}
	return 1
}
