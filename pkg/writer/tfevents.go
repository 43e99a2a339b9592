package writer

import (
	"encoding/binary"
	"hash/crc32"
	"math"
)

// tfevents record framing and a minimal hand-rolled encoding of the two
// protobuf messages tensorboard reads for scalars. The file format is a
// sequence of records, each framed as
//
//	uint64 length (LE), uint32 masked crc32c of the length bytes,
//	payload, uint32 masked crc32c of the payload.
//
// The payload is an Event message: wall_time (field 1, double), step
// (field 2, int64) and either file_version (field 3, string) or a Summary
// (field 5) holding one Value with tag (field 1) and simple_value (field 2,
// float).

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

const crcMaskDelta = 0xa282ead8

func maskedCRC(data []byte) uint32 {
	crc := crc32.Checksum(data, castagnoli)
	return ((crc >> 15) | (crc << 17)) + crcMaskDelta
}

func frameRecord(payload []byte) []byte {
	var lenBytes [8]byte
	binary.LittleEndian.PutUint64(lenBytes[:], uint64(len(payload)))

	out := make([]byte, 0, len(payload)+16)
	out = append(out, lenBytes[:]...)
	out = binary.LittleEndian.AppendUint32(out, maskedCRC(lenBytes[:]))
	out = append(out, payload...)
	out = binary.LittleEndian.AppendUint32(out, maskedCRC(payload))
	return out
}

func appendVarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

func appendTag(b []byte, field, wireType int) []byte {
	return appendVarint(b, uint64(field)<<3|uint64(wireType))
}

const (
	wireVarint  = 0
	wireFixed64 = 1
	wireBytes   = 2
	wireFixed32 = 5
)

func appendDouble(b []byte, field int, v float64) []byte {
	b = appendTag(b, field, wireFixed64)
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
}

func appendFloat(b []byte, field int, v float32) []byte {
	b = appendTag(b, field, wireFixed32)
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}

func appendInt64(b []byte, field int, v int64) []byte {
	b = appendTag(b, field, wireVarint)
	return appendVarint(b, uint64(v))
}

func appendBytes(b []byte, field int, v []byte) []byte {
	b = appendTag(b, field, wireBytes)
	b = appendVarint(b, uint64(len(v)))
	return append(b, v...)
}

func encodeFileVersionEvent(wallTime float64) []byte {
	var ev []byte
	ev = appendDouble(ev, 1, wallTime)
	ev = appendBytes(ev, 3, []byte("brain.Event:2"))
	return ev
}

func encodeScalarEvent(wallTime float64, step int64, tag string, value float32) []byte {
	var sv []byte
	sv = appendBytes(sv, 1, []byte(tag))
	sv = appendFloat(sv, 2, value)

	var summary []byte
	summary = appendBytes(summary, 1, sv)

	var ev []byte
	ev = appendDouble(ev, 1, wallTime)
	ev = appendInt64(ev, 2, step)
	ev = appendBytes(ev, 5, summary)
	return ev
}
