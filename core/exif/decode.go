// Package exif decodes TIFF/EXIF image file directories into a Map of named,
// typed values and resolves GPS coordinates.
//
// Decoding is strict about the TIFF header and lenient inside directories:
// a bad byte order, magic number, or IFD0 offset fails the whole payload,
// while a single tag whose value lies outside the payload is skipped and
// recorded in Map.Skipped.
package exif

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/ankit-chaubey/image-surgery/core"
)

// ErrInvalidHeader is returned when the TIFF header cannot be trusted. It
// wraps core.ErrMalformedContainer.
var ErrInvalidHeader = errors.Wrap(core.ErrMalformedContainer, "invalid TIFF header")

const (
	tiffHeaderSize = 8
	ifdEntrySize   = 12
)

// typeSizes maps each known type code to its element size in bytes.
var typeSizes = map[tiff.DataType]uint64{
	tiff.DTByte:      1,
	tiff.DTAscii:     1,
	tiff.DTShort:     2,
	tiff.DTLong:      4,
	tiff.DTRational:  8,
	tiff.DTSByte:     1,
	tiff.DTUndefined: 1,
	tiff.DTSShort:    2,
	tiff.DTSLong:     4,
	tiff.DTSRational: 8,
	tiff.DTFloat:     4,
	tiff.DTDouble:    8,
}

type decoder struct {
	buf     []byte
	order   binary.ByteOrder
	seen    map[uint32]bool
	skipped *multierror.Error
}

// Decode parses a TIFF-structured EXIF payload, i.e. the bytes following the
// "Exif\0\0" signature of a JPEG APP1 segment, a PNG eXIf chunk, or a whole
// TIFF file.
func Decode(payload []byte) (*Map, error) {
	if len(payload) < tiffHeaderSize {
		return nil, errors.Wrapf(ErrInvalidHeader, "payload is %d bytes", len(payload))
	}
	var order binary.ByteOrder
	switch string(payload[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, errors.Wrapf(ErrInvalidHeader, "byte order %q", payload[:2])
	}
	if magic := order.Uint16(payload[2:]); magic != 42 {
		return nil, errors.Wrapf(ErrInvalidHeader, "magic number %d", magic)
	}
	ifd0 := order.Uint32(payload[4:])
	if ifd0 < tiffHeaderSize || uint64(ifd0)+2 > uint64(len(payload)) {
		return nil, errors.Wrapf(ErrInvalidHeader, "IFD0 offset %d outside %d-byte payload", ifd0, len(payload))
	}

	d := &decoder{buf: payload, order: order, seen: make(map[uint32]bool)}
	m := NewMap()
	if next := d.readIFD(ifd0, DirIFD0, m); next != 0 {
		d.readIFD(next, DirIFD1, m)
	}
	m.skipped = d.skipped
	return m, nil
}

func (d *decoder) skip(err error) {
	log.Debug().Err(err).Msg("skipping EXIF data")
	d.skipped = multierror.Append(d.skipped, err)
}

// readIFD reads the directory at off into m and returns the offset of the
// next directory in the chain, or 0.
func (d *decoder) readIFD(off uint32, dir Directory, m *Map) uint32 {
	if d.seen[off] {
		d.skip(fmt.Errorf("%s IFD at %d: cycle detected", dir, off))
		return 0
	}
	d.seen[off] = true

	size := uint64(len(d.buf))
	if off < tiffHeaderSize {
		d.skip(fmt.Errorf("%s IFD at %d: offset inside TIFF header", dir, off))
		return 0
	}
	if uint64(off)+2 > size {
		d.skip(fmt.Errorf("%s IFD at %d: past end of %d-byte payload", dir, off, size))
		return 0
	}
	count := uint64(d.order.Uint16(d.buf[off:]))
	table := uint64(off) + 2
	for i := uint64(0); i < count; i++ {
		pos := table + i*ifdEntrySize
		if pos+ifdEntrySize > size {
			d.skip(fmt.Errorf("%s IFD at %d: entries %d-%d past end of payload", dir, off, i, count-1))
			return 0
		}
		d.readEntry(d.buf[pos:pos+ifdEntrySize], dir, m)
	}
	next := table + count*ifdEntrySize
	if next+4 > size {
		return 0
	}
	return d.order.Uint32(d.buf[next:])
}

func (d *decoder) readEntry(raw []byte, dir Directory, m *Map) {
	id := TagID(d.order.Uint16(raw))
	typ := tiff.DataType(d.order.Uint16(raw[2:]))
	count := d.order.Uint32(raw[4:])
	field := raw[8:12]

	switch {
	case id == TagExifIFD && dir == DirIFD0:
		d.readIFD(d.order.Uint32(field), DirExif, m)
		return
	case id == TagGPSIFD && (dir == DirIFD0 || dir == DirExif):
		if m.GPS != nil {
			d.skip(fmt.Errorf("%s IFD: duplicate GPS pointer", dir))
			return
		}
		gps := NewMap()
		d.readIFD(d.order.Uint32(field), DirGPS, gps)
		if gps.Len() > 0 {
			m.GPS = gps
		}
		return
	case id == TagInteropIFD && dir == DirExif:
		d.readIFD(d.order.Uint32(field), DirInterop, m)
		return
	}

	name := TagName(dir, id)
	unit, known := typeSizes[typ]
	if !known {
		// Unknown type: the element size is unknown, so keep the raw field.
		d.add(m, Entry{Name: name, ID: id, IFD: dir, Value: Value{Kind: KindBytes, Type: typ, Count: count, raw: append([]byte(nil), field...)}})
		return
	}

	size := unit * uint64(count)
	data := field[:0]
	if size <= 4 {
		data = field[:size]
	} else {
		off := uint64(d.order.Uint32(field))
		if off+size > uint64(len(d.buf)) {
			d.skip(fmt.Errorf("%s tag %s (0x%04X): %d bytes at offset %d past end of payload", dir, name, uint16(id), size, off))
			return
		}
		data = d.buf[off : off+size]
	}
	d.add(m, Entry{Name: name, ID: id, IFD: dir, Value: d.value(id, typ, count, data)})
}

func (d *decoder) add(m *Map, e Entry) {
	if !m.Add(e) {
		d.skip(fmt.Errorf("%s tag %s (0x%04X): duplicate name", e.IFD, e.Name, uint16(e.ID)))
	}
}

// value converts the bytes of one tag according to its declared type.
func (d *decoder) value(id TagID, typ tiff.DataType, count uint32, data []byte) Value {
	if id == TagMakerNote {
		// Vendor formats are not decoded.
		return Bytes(typ, data)
	}
	o := d.order
	n := int(count)
	switch typ {
	case tiff.DTAscii:
		v := Text(strings.TrimRight(string(data), "\x00"))
		v.Count = count
		return v
	case tiff.DTByte:
		vals := make([]uint32, n)
		for i := range vals {
			vals[i] = uint32(data[i])
		}
		return Unsigned(typ, vals...)
	case tiff.DTShort:
		vals := make([]uint32, n)
		for i := range vals {
			vals[i] = uint32(o.Uint16(data[2*i:]))
		}
		return Unsigned(typ, vals...)
	case tiff.DTLong:
		vals := make([]uint32, n)
		for i := range vals {
			vals[i] = o.Uint32(data[4*i:])
		}
		return Unsigned(typ, vals...)
	case tiff.DTSByte:
		vals := make([]int32, n)
		for i := range vals {
			vals[i] = int32(int8(data[i]))
		}
		return Signed(typ, vals...)
	case tiff.DTSShort:
		vals := make([]int32, n)
		for i := range vals {
			vals[i] = int32(int16(o.Uint16(data[2*i:])))
		}
		return Signed(typ, vals...)
	case tiff.DTSLong:
		vals := make([]int32, n)
		for i := range vals {
			vals[i] = int32(o.Uint32(data[4*i:]))
		}
		return Signed(typ, vals...)
	case tiff.DTRational:
		vals := make([]Rational, n)
		for i := range vals {
			vals[i] = Rational{Num: int64(o.Uint32(data[8*i:])), Den: int64(o.Uint32(data[8*i+4:]))}
		}
		return Rationals(typ, vals...)
	case tiff.DTSRational:
		vals := make([]Rational, n)
		for i := range vals {
			vals[i] = Rational{Num: int64(int32(o.Uint32(data[8*i:]))), Den: int64(int32(o.Uint32(data[8*i+4:])))}
		}
		return Rationals(typ, vals...)
	case tiff.DTFloat:
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = float64(math.Float32frombits(o.Uint32(data[4*i:])))
		}
		return Floats(typ, vals...)
	case tiff.DTDouble:
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = math.Float64frombits(o.Uint64(data[8*i:]))
		}
		return Floats(typ, vals...)
	default:
		// UNDEFINED
		return Bytes(typ, data)
	}
}
