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

// A Tag represents an auxiliary tag label.
type Tag [2]byte

// NewTag returns a Tag from the tag string. It panics if len(tag) != 2.
func NewTag(tag string) Tag {
	if len(tag) != 2 {
		panic("bam: illegal tag length")
	}
	var t Tag
	copy(t[:], tag)
	return t
}

// String returns a string representation of a Tag.
func (t Tag) String() string { return string(t[:]) }

// An Aux represents an auxiliary data field from an alignment record:
// a two byte tag, a value type byte and the value bytes. String and
// hex-string values include their terminating NUL.
type Aux []byte

// auxSize maps a value type code to the width of its value in bytes.
// Variable width types map to -1 and unknown codes to 0.
var auxSize = [256]int{
	'A': 1,
	'c': 1, 'C': 1,
	's': 2, 'S': 2,
	'i': 4, 'I': 4,
	'f': 4,
	'd': 8,
	'Z': -1,
	'H': -1,
	'B': -1,
}

// skipAux returns the index just after the auxiliary field starting at
// i in tags, validating that the field is complete.
func skipAux(tags []byte, i int) (int, error) {
	if len(tags)-i < 3 {
		return 0, fmt.Errorf("bam: truncated tag at %d", i)
	}
	typ := tags[i+2]
	switch typ {
	case 'Z', 'H':
		for j := i + 3; j < len(tags); j++ {
			if tags[j] == 0 {
				return j + 1, nil
			}
		}
		return 0, fmt.Errorf("bam: truncated tag %c%c: string value not NUL terminated", tags[i], tags[i+1])
	case 'B':
		if len(tags)-i < 8 {
			return 0, fmt.Errorf("bam: truncated tag %c%c", tags[i], tags[i+1])
		}
		size := auxSize[tags[i+3]]
		if size <= 0 {
			return 0, fmt.Errorf("bam: unknown array type %q for tag %c%c", tags[i+3], tags[i], tags[i+1])
		}
		n := binary.LittleEndian.Uint32(tags[i+4:])
		end := int64(i) + 8 + int64(n)*int64(size)
		if end > int64(len(tags)) {
			return 0, fmt.Errorf("bam: truncated tag %c%c", tags[i], tags[i+1])
		}
		return int(end), nil
	default:
		size := auxSize[typ]
		if size <= 0 {
			return 0, fmt.Errorf("bam: unknown tag type %q for tag %c%c", typ, tags[i], tags[i+1])
		}
		if i+3+size > len(tags) {
			return 0, fmt.Errorf("bam: truncated tag %c%c", tags[i], tags[i+1])
		}
		return i + 3 + size, nil
	}
}

// findAux returns the start index of the field labelled t in tags, or
// -1 if no field matches.
func findAux(tags []byte, t Tag) (int, error) {
	for i := 0; i < len(tags); {
		if len(tags)-i < 3 {
			return 0, fmt.Errorf("bam: truncated tag at %d", i)
		}
		if tags[i] == t[0] && tags[i+1] == t[1] {
			return i, nil
		}
		next, err := skipAux(tags, i)
		if err != nil {
			return 0, err
		}
		i = next
	}
	return -1, nil
}

// Tag returns the Tag representation of the Aux tag ID.
func (a Aux) Tag() Tag { var t Tag; copy(t[:], a[:2]); return t }

// Type returns a byte corresponding to the value type of the auxiliary
// field. Returned values are in {'A', 'c', 'C', 's', 'S', 'i', 'I',
// 'f', 'd', 'Z', 'H', 'B'}.
func (a Aux) Type() byte { return a[2] }

// Value returns the decoded native value of the auxiliary field.
// Integer types decode to the Go integer type of matching width and
// signedness, 'f' and 'd' to float32 and float64, 'A' and 'Z' to
// string, and 'B' arrays to a typed slice over a fresh copy of the
// packed values. 'H' decoding is not implemented.
func (a Aux) Value() (interface{}, error) {
	if len(a) < 3 {
		return nil, fmt.Errorf("bam: truncated tag")
	}
	v := a[3:]
	switch typ := a.Type(); typ {
	case 'A':
		if len(v) < 1 {
			break
		}
		return string(v[:1]), nil
	case 'c':
		if len(v) < 1 {
			break
		}
		return int8(v[0]), nil
	case 'C':
		if len(v) < 1 {
			break
		}
		return uint8(v[0]), nil
	case 's':
		if len(v) < 2 {
			break
		}
		return int16(binary.LittleEndian.Uint16(v)), nil
	case 'S':
		if len(v) < 2 {
			break
		}
		return binary.LittleEndian.Uint16(v), nil
	case 'i':
		if len(v) < 4 {
			break
		}
		return int32(binary.LittleEndian.Uint32(v)), nil
	case 'I':
		if len(v) < 4 {
			break
		}
		return binary.LittleEndian.Uint32(v), nil
	case 'f':
		if len(v) < 4 {
			break
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(v)), nil
	case 'd':
		if len(v) < 8 {
			break
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(v)), nil
	case 'Z':
		for j, c := range v {
			if c == 0 {
				return string(v[:j]), nil
			}
		}
		return nil, fmt.Errorf("bam: truncated tag %c%c: string value not NUL terminated", a[0], a[1])
	case 'H':
		return nil, ErrNotImplemented
	case 'B':
		return a.arrayValue()
	default:
		return nil, fmt.Errorf("bam: unknown tag type %q for tag %c%c", typ, a[0], a[1])
	}
	return nil, fmt.Errorf("bam: truncated tag %c%c", a[0], a[1])
}

func (a Aux) arrayValue() (interface{}, error) {
	if len(a) < 8 {
		return nil, fmt.Errorf("bam: truncated tag %c%c", a[0], a[1])
	}
	sub := a[3]
	size := auxSize[sub]
	if size <= 0 {
		return nil, fmt.Errorf("bam: unknown array type %q for tag %c%c", sub, a[0], a[1])
	}
	n := int(binary.LittleEndian.Uint32(a[4:8]))
	v := a[8:]
	if int64(n)*int64(size) > int64(len(v)) {
		return nil, fmt.Errorf("bam: truncated tag %c%c", a[0], a[1])
	}
	switch sub {
	case 'c':
		s := make([]int8, n)
		for i := range s {
			s[i] = int8(v[i])
		}
		return s, nil
	case 'C':
		s := make([]uint8, n)
		copy(s, v)
		return s, nil
	case 's':
		s := make([]int16, n)
		for i := range s {
			s[i] = int16(binary.LittleEndian.Uint16(v[i*2:]))
		}
		return s, nil
	case 'S':
		s := make([]uint16, n)
		for i := range s {
			s[i] = binary.LittleEndian.Uint16(v[i*2:])
		}
		return s, nil
	case 'i':
		s := make([]int32, n)
		for i := range s {
			s[i] = int32(binary.LittleEndian.Uint32(v[i*4:]))
		}
		return s, nil
	case 'I':
		s := make([]uint32, n)
		for i := range s {
			s[i] = binary.LittleEndian.Uint32(v[i*4:])
		}
		return s, nil
	case 'f':
		s := make([]float32, n)
		for i := range s {
			s[i] = math.Float32frombits(binary.LittleEndian.Uint32(v[i*4:]))
		}
		return s, nil
	default: // 'd'
		s := make([]float64, n)
		for i := range s {
			s[i] = math.Float64frombits(binary.LittleEndian.Uint64(v[i*8:]))
		}
		return s, nil
	}
}

// String returns the Aux field as tag:type:value, with the decoded
// value in Go's default format, or a description of the field when the
// value cannot be decoded. The type letter is the stored one and array
// values are rendered as Go slices, so the result is not SAM text for
// every value type.
func (a Aux) String() string {
	v, err := a.Value()
	if err != nil {
		return fmt.Sprintf("%s:%c:<%v>", a.Tag(), a.Type(), err)
	}
	return fmt.Sprintf("%s:%c:%v", a.Tag(), a.Type(), v)
}

// tagTypes is the default value type for the tags of the SAMtags
// specification, used when no explicit value type is given. Array
// types carry their subtype as a second byte.
var tagTypes = map[Tag]string{
	{'T', 'S'}: "A",

	{'A', 'M'}: "i", {'A', 'S'}: "i", {'C', 'M'}: "i", {'C', 'P'}: "i",
	{'F', 'I'}: "i", {'H', '0'}: "i", {'H', '1'}: "i", {'H', '2'}: "i",
	{'H', 'I'}: "i", {'I', 'H'}: "i", {'M', 'Q'}: "i", {'N', 'H'}: "i",
	{'N', 'M'}: "i", {'O', 'P'}: "i", {'P', 'Q'}: "i", {'S', 'M'}: "i",
	{'T', 'C'}: "i", {'U', 'Q'}: "i",

	{'B', 'C'}: "Z", {'B', 'Q'}: "Z", {'B', 'Z'}: "Z", {'C', 'B'}: "Z",
	{'C', 'C'}: "Z", {'C', 'O'}: "Z", {'C', 'Q'}: "Z", {'C', 'R'}: "Z",
	{'C', 'S'}: "Z", {'C', 'T'}: "Z", {'C', 'Y'}: "Z", {'E', '2'}: "Z",
	{'F', 'S'}: "Z", {'L', 'B'}: "Z", {'M', 'C'}: "Z", {'M', 'D'}: "Z",
	{'M', 'I'}: "Z", {'M', 'M'}: "Z", {'O', 'A'}: "Z", {'O', 'C'}: "Z",
	{'O', 'Q'}: "Z", {'O', 'X'}: "Z", {'P', 'G'}: "Z", {'P', 'T'}: "Z",
	{'P', 'U'}: "Z", {'Q', '2'}: "Z", {'Q', 'T'}: "Z", {'Q', 'X'}: "Z",
	{'R', '2'}: "Z", {'R', 'G'}: "Z", {'R', 'X'}: "Z", {'S', 'A'}: "Z",
	{'U', '2'}: "Z",

	{'M', 'L'}: "BC",
	{'F', 'Z'}: "BS",
	{'C', 'G'}: "BI",
}

// valueType returns the value type to use for a tag and value when no
// explicit type is given: first the SAMtags default for the tag, then
// a type derived from the value's native kind.
func valueType(t Tag, value interface{}) (string, error) {
	if vt, ok := tagTypes[t]; ok {
		return vt, nil
	}
	switch value.(type) {
	case string:
		return "Z", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "I", nil
	case float32, float64:
		return "f", nil
	case []byte, []int8, []int16, []uint16, []int32, []uint32, []float32, []float64:
		return "B", nil
	}
	return "", fmt.Errorf("bam: cannot determine value type for tag %v from %T", t, value)
}

// auxInt coerces an integer value of any Go integer type to int64.
func auxInt(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	}
	return 0, false
}

func auxIntIn(t Tag, vt byte, value interface{}, lo, hi int64) (int64, error) {
	v, ok := auxInt(value)
	if !ok {
		return 0, fmt.Errorf("bam: tag %v with value type %q needs an integer value, got %T", t, vt, value)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("bam: tag %v with value type %q needs a value between %d and %d, got %d", t, vt, lo, hi, v)
	}
	return v, nil
}

func auxFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	if i, ok := auxInt(value); ok {
		return float64(i), true
	}
	return 0, false
}

// NewAux returns a new Aux encoding value with the given value type.
// The value type is one character, or two for 'B' array types whose
// second character is the array subtype; a bare "B" derives the
// subtype from the value's element type.
func NewAux(t Tag, vt string, value interface{}) (Aux, error) {
	if len(vt) == 0 || len(vt) > 2 {
		return nil, fmt.Errorf("bam: value type must have length 1 or 2, got %q", vt)
	}
	a := Aux{t[0], t[1], vt[0]}
	switch vt[0] {
	case 'A':
		s, ok := value.(string)
		if !ok || len(s) != 1 {
			return nil, fmt.Errorf("bam: tag %v with value type 'A' needs a single character string, got %#v", t, value)
		}
		if s[0] >= 0x80 {
			return nil, fmt.Errorf("bam: tag %v with value type 'A' needs an ASCII character", t)
		}
		return append(a, s[0]), nil
	case 'c':
		v, err := auxIntIn(t, 'c', value, math.MinInt8, math.MaxInt8)
		if err != nil {
			return nil, err
		}
		return append(a, byte(int8(v))), nil
	case 'C':
		v, err := auxIntIn(t, 'C', value, 0, math.MaxUint8)
		if err != nil {
			return nil, err
		}
		return append(a, byte(v)), nil
	case 's':
		v, err := auxIntIn(t, 's', value, math.MinInt16, math.MaxInt16)
		if err != nil {
			return nil, err
		}
		a = append(a, 0, 0)
		binary.LittleEndian.PutUint16(a[3:], uint16(int16(v)))
		return a, nil
	case 'S':
		v, err := auxIntIn(t, 'S', value, 0, math.MaxUint16)
		if err != nil {
			return nil, err
		}
		a = append(a, 0, 0)
		binary.LittleEndian.PutUint16(a[3:], uint16(v))
		return a, nil
	case 'i':
		v, err := auxIntIn(t, 'i', value, math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		a = append(a, 0, 0, 0, 0)
		binary.LittleEndian.PutUint32(a[3:], uint32(int32(v)))
		return a, nil
	case 'I':
		v, err := auxIntIn(t, 'I', value, 0, math.MaxUint32)
		if err != nil {
			return nil, err
		}
		a = append(a, 0, 0, 0, 0)
		binary.LittleEndian.PutUint32(a[3:], uint32(v))
		return a, nil
	case 'f':
		v, ok := auxFloat(value)
		if !ok {
			return nil, fmt.Errorf("bam: tag %v with value type 'f' needs a numeric value, got %T", t, value)
		}
		a = append(a, 0, 0, 0, 0)
		binary.LittleEndian.PutUint32(a[3:], math.Float32bits(float32(v)))
		return a, nil
	case 'd':
		v, ok := auxFloat(value)
		if !ok {
			return nil, fmt.Errorf("bam: tag %v with value type 'd' needs a numeric value, got %T", t, value)
		}
		a = append(a, 0, 0, 0, 0, 0, 0, 0, 0)
		binary.LittleEndian.PutUint64(a[3:], math.Float64bits(v))
		return a, nil
	case 'Z':
		var s []byte
		switch v := value.(type) {
		case string:
			s = []byte(v)
		case []byte:
			s = v
		default:
			return nil, fmt.Errorf("bam: tag %v with value type 'Z' needs a string value, got %T", t, value)
		}
		if !ascii.Valid(s) {
			return nil, fmt.Errorf("bam: tag %v with value type 'Z' needs an ASCII value", t)
		}
		a = append(a, s...)
		return append(a, 0), nil
	case 'H':
		return nil, ErrNotImplemented
	case 'B':
		var sub byte
		if len(vt) == 2 {
			sub = vt[1]
		}
		return newArrayAux(t, sub, value)
	}
	return nil, fmt.Errorf("bam: unknown value type %q", vt)
}

// newArrayAux encodes a 'B' array field. With a zero subtype the
// subtype is derived from the value's element type. A []byte value may
// be combined with any subtype and is reinterpreted raw; its length
// must then be a multiple of the subtype width.
func newArrayAux(t Tag, sub byte, value interface{}) (Aux, error) {
	var (
		n    int
		data []byte
	)
	switch v := value.(type) {
	case []byte:
		if sub == 0 {
			sub = 'C'
		}
		size := auxSize[sub]
		if size <= 0 {
			return nil, fmt.Errorf("bam: unknown array type %q for tag %v", sub, t)
		}
		if len(v)%size != 0 {
			return nil, fmt.Errorf("bam: cannot set tag %v with type 'B%c': buffer size %d not a multiple of %d", t, sub, len(v), size)
		}
		n = len(v) / size
		data = v
	case []int8:
		if sub == 0 {
			sub = 'c'
		} else if sub != 'c' {
			return nil, arraySubtypeMismatch(t, sub, value)
		}
		n = len(v)
		data = make([]byte, len(v))
		for i, e := range v {
			data[i] = byte(e)
		}
	case []int16:
		if sub == 0 {
			sub = 's'
		} else if sub != 's' {
			return nil, arraySubtypeMismatch(t, sub, value)
		}
		n = len(v)
		data = make([]byte, 2*len(v))
		for i, e := range v {
			binary.LittleEndian.PutUint16(data[i*2:], uint16(e))
		}
	case []uint16:
		if sub == 0 {
			sub = 'S'
		} else if sub != 'S' {
			return nil, arraySubtypeMismatch(t, sub, value)
		}
		n = len(v)
		data = make([]byte, 2*len(v))
		for i, e := range v {
			binary.LittleEndian.PutUint16(data[i*2:], e)
		}
	case []int32:
		if sub == 0 {
			sub = 'i'
		} else if sub != 'i' {
			return nil, arraySubtypeMismatch(t, sub, value)
		}
		n = len(v)
		data = make([]byte, 4*len(v))
		for i, e := range v {
			binary.LittleEndian.PutUint32(data[i*4:], uint32(e))
		}
	case []uint32:
		if sub == 0 {
			sub = 'I'
		} else if sub != 'I' {
			return nil, arraySubtypeMismatch(t, sub, value)
		}
		n = len(v)
		data = make([]byte, 4*len(v))
		for i, e := range v {
			binary.LittleEndian.PutUint32(data[i*4:], e)
		}
	case []float32:
		if sub == 0 {
			sub = 'f'
		} else if sub != 'f' {
			return nil, arraySubtypeMismatch(t, sub, value)
		}
		n = len(v)
		data = make([]byte, 4*len(v))
		for i, e := range v {
			binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(e))
		}
	case []float64:
		if sub == 0 {
			sub = 'd'
		} else if sub != 'd' {
			return nil, arraySubtypeMismatch(t, sub, value)
		}
		n = len(v)
		data = make([]byte, 8*len(v))
		for i, e := range v {
			binary.LittleEndian.PutUint64(data[i*8:], math.Float64bits(e))
		}
	default:
		return nil, fmt.Errorf("bam: tag %v with value type 'B' needs a slice value, got %T", t, value)
	}
	if int64(n) > math.MaxUint32 {
		return nil, fmt.Errorf("bam: array for tag %v longer than %d", t, uint32(math.MaxUint32))
	}
	a := Aux{t[0], t[1], 'B', sub, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(a[4:], uint32(n))
	return append(a, data...), nil
}

func arraySubtypeMismatch(t Tag, sub byte, value interface{}) error {
	return fmt.Errorf("bam: cannot set tag %v with array type %q from %T", t, sub, value)
}
