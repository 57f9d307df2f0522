package image

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/ankit-chaubey/image-surgery/core/exif"
)

// maxInflated caps decompressed PNG text so a hostile chunk cannot balloon.
const maxInflated = 8 << 20

var (
	xmpNamespace = []byte("http://ns.adobe.com/xap/1.0/\x00")
	photoshopID  = []byte("Photoshop 3.0\x00")
	gifXMPID     = []byte("XMP DataXMP")
	xmpKeyword   = "XML:com.adobe.xmp"
)

// addText stores a text entry under name, or name_2, name_3, ... when the
// name is already taken.
func addText(m *exif.Map, name, val string) {
	addValue(m, name, exif.Text(val))
}

func addValue(m *exif.Map, name string, v exif.Value) {
	key := name
	for n := 2; !m.Add(exif.Entry{Name: key, IFD: exif.DirNone, Value: v}); n++ {
		key = fmt.Sprintf("%s_%d", name, n)
	}
}

// ─── XMP ─────────────────────────────────────────────────────────────────────

// parseXMPInto records the raw packet under "XMP" and each simple property
// under "XMP:<name>".
func parseXMPInto(data []byte, m *exif.Map) {
	addValue(m, "XMP", exif.Bytes(tiff.DTUndefined, data))

	dec := xml.NewDecoder(bytes.NewReader(data))
	var current string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
			for _, attr := range t.Attr {
				if strings.HasPrefix(attr.Name.Local, "xmlns") || attr.Name.Space == "xmlns" {
					continue
				}
				if attr.Value != "" && attr.Name.Local != "about" {
					addText(m, "XMP:"+attr.Name.Local, attr.Value)
				}
			}
		case xml.CharData:
			val := strings.TrimSpace(string(t))
			if val != "" && current != "" && current != "xmpmeta" && current != "RDF" && current != "li" {
				addText(m, "XMP:"+current, val)
			}
		case xml.EndElement:
			current = ""
		}
	}
}

// ─── IPTC ────────────────────────────────────────────────────────────────────

var iptcFieldNames = map[byte]string{
	0x05: "ObjectName",
	0x0F: "Category",
	0x14: "SupplementalCategory",
	0x19: "Keywords",
	0x28: "SpecialInstructions",
	0x37: "DateCreated",
	0x3C: "TimeCreated",
	0x3E: "DigitalCreationDate",
	0x50: "Byline",
	0x55: "BylineTitle",
	0x5A: "City",
	0x5C: "Sublocation",
	0x5F: "Province",
	0x65: "Country",
	0x67: "OriginalTransmissionReference",
	0x69: "Headline",
	0x6E: "Credit",
	0x73: "Source",
	0x74: "CopyrightNotice",
	0x76: "Contact",
	0x78: "Caption",
	0x7A: "CaptionWriter",
}

// parseIPTCInto walks the Photoshop image resource blocks of an APP13
// payload and decodes the IPTC-NAA resource (0x0404).
func parseIPTCInto(data []byte, m *exif.Map) {
	i := 0
	for i+8 < len(data) {
		if !bytes.Equal(data[i:i+4], []byte("8BIM")) {
			i++
			continue
		}
		resType := binary.BigEndian.Uint16(data[i+4 : i+6])
		// Pascal name padded to an even total length.
		nameLen := int(data[i+6])
		if nameLen%2 == 0 {
			nameLen++
		}
		i += 7 + nameLen
		if i+4 > len(data) {
			break
		}
		blockLen := int(binary.BigEndian.Uint32(data[i : i+4]))
		i += 4
		if blockLen < 0 || i+blockLen > len(data) {
			break
		}
		if resType == 0x0404 {
			parseIPTCBlock(data[i:i+blockLen], m)
		}
		i += blockLen + blockLen%2
	}
}

func parseIPTCBlock(data []byte, m *exif.Map) {
	i := 0
	for i+5 <= len(data) {
		if data[i] != 0x1C {
			i++
			continue
		}
		record := data[i+1]
		dataset := data[i+2]
		length := int(binary.BigEndian.Uint16(data[i+3 : i+5]))
		i += 5
		if i+length > len(data) {
			break
		}
		// Record 2 holds the application datasets.
		if name, ok := iptcFieldNames[dataset]; ok && record == 2 {
			addText(m, "IPTC:"+name, string(data[i:i+length]))
		}
		i += length
	}
}

// ─── PNG ─────────────────────────────────────────────────────────────────────

// readPNGText decodes tEXt, zTXt, iTXt and tIME chunk data.
func readPNGText(typ string, data []byte, m *exif.Map) error {
	switch typ {
	case "tEXt":
		// keyword\0text
		key, val, ok := bytes.Cut(data, []byte{0})
		if !ok || len(key) == 0 {
			return errors.New("tEXt: missing keyword separator")
		}
		addText(m, "PNG:"+string(key), latin1(val))
	case "zTXt":
		// keyword\0method compressed-text
		key, rest, ok := bytes.Cut(data, []byte{0})
		if !ok || len(key) == 0 || len(rest) < 1 {
			return errors.New("zTXt: missing keyword separator")
		}
		if rest[0] != 0 {
			return errors.Errorf("zTXt %q: compression method %d", key, rest[0])
		}
		val, err := inflate(rest[1:])
		if err != nil {
			return errors.Wrapf(err, "zTXt %q", key)
		}
		addText(m, "PNG:"+string(key), latin1(val))
	case "iTXt":
		// keyword\0 flag method language\0 translated-keyword\0 text
		key, rest, ok := bytes.Cut(data, []byte{0})
		if !ok || len(key) == 0 || len(rest) < 2 {
			return errors.New("iTXt: truncated header")
		}
		compressed, method := rest[0], rest[1]
		rest = rest[2:]
		for n := 0; n < 2; n++ {
			if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok {
				return errors.Errorf("iTXt %q: truncated header", key)
			}
		}
		text := rest
		if compressed == 1 {
			if method != 0 {
				return errors.Errorf("iTXt %q: compression method %d", key, method)
			}
			var err error
			if text, err = inflate(text); err != nil {
				return errors.Wrapf(err, "iTXt %q", key)
			}
		}
		if string(key) == xmpKeyword {
			parseXMPInto(text, m)
			return nil
		}
		addText(m, "PNG:"+string(key), string(text))
	case "tIME":
		if len(data) != 7 {
			return errors.Errorf("tIME: %d bytes, want 7", len(data))
		}
		year := binary.BigEndian.Uint16(data[0:2])
		addText(m, "PNG:LastModified", fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", year, data[2], data[3], data[4], data[5], data[6]))
	}
	return nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxInflated+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxInflated {
		return nil, errors.Errorf("inflated text exceeds %d bytes", maxInflated)
	}
	return out, nil
}

// latin1 converts ISO 8859-1 text, which tEXt and zTXt use, to UTF-8.
func latin1(b []byte) string {
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}

// ─── GIF ─────────────────────────────────────────────────────────────────────

// gifSubBlocks concatenates the data sub-blocks starting at body[0].
func gifSubBlocks(body []byte) []byte {
	var out []byte
	for i := 0; i < len(body); {
		n := int(body[i])
		i++
		if n == 0 || i+n > len(body) {
			break
		}
		out = append(out, body[i:i+n]...)
		i += n
	}
	return out
}

// gifXMP extracts the packet from an "XMP DataXMP" application extension.
// The packet is stored raw, not in sub-blocks, and followed by a 258-byte
// magic trailer.
func gifXMP(ext []byte) []byte {
	raw := ext[3+len(gifXMPID):]
	end := bytes.Index(raw, []byte("<?xpacket end="))
	if end < 0 {
		return nil
	}
	tail := bytes.Index(raw[end:], []byte("?>"))
	if tail < 0 {
		return nil
	}
	return raw[:end+tail+2]
}
