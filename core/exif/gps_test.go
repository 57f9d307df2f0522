package exif

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/pkg/errors"
	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/ankit-chaubey/image-surgery/core"
	"github.com/ankit-chaubey/image-surgery/core/internal/testimg"
)

func dms(d, m, s int64) []Rational {
	return []Rational{{d, 1}, {m, 1}, {s, 1}}
}

func TestResolveDMS(t *testing.T) {
	tests := []struct {
		name string
		dms  []Rational
		ref  string
		want float64
	}{
		{"north", dms(40, 26, 46), "N", 40.446111},
		{"west", dms(79, 58, 36), "W", -79.976666},
		{"south", dms(33, 51, 54), "S", -33.865},
		{"east lowercase", dms(151, 12, 36), "e", 151.21},
		{"fractional seconds", []Rational{{51, 1}, {30, 1}, {2634, 100}}, "N", 51.507316},
		{"empty ref keeps sign", []Rational{{-12, 1}, {30, 1}, {0, 1}}, "", -12.5},
		{"ref wins over signed degrees", []Rational{{-12, 1}, {30, 1}, {0, 1}}, "N", 12.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDMS(tt.dms, tt.ref)
			if err != nil {
				t.Fatalf("ResolveDMS() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("ResolveDMS() = %.7f, want %.7f", got, tt.want)
			}
		})
	}
}

func TestResolveDMSInvalid(t *testing.T) {
	tests := map[string]struct {
		dms []Rational
		ref string
	}{
		"zero denominator": {[]Rational{{40, 1}, {26, 0}, {46, 1}}, "N"},
		"two values":       {[]Rational{{40, 1}, {26, 1}}, "N"},
		"no values":        {nil, "N"},
		"bad reference":    {dms(40, 26, 46), "X"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ResolveDMS(tt.dms, tt.ref); !errors.Is(err, core.ErrInvalidCoordinate) {
				t.Errorf("ResolveDMS() error = %v, want ErrInvalidCoordinate", err)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	payload := camera(binary.LittleEndian)
	m := mustDecode(t, payload)

	c, err := Resolve(m.GPS)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if math.Abs(c.Latitude-40.446111) > 1e-6 || math.Abs(c.Longitude+79.976666) > 1e-6 {
		t.Errorf("Resolve() = %v", c)
	}

	x, err := goexif.Decode(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("goexif.Decode() error = %v", err)
	}
	lat, long, err := x.LatLong()
	if err != nil {
		t.Fatalf("goexif LatLong() error = %v", err)
	}
	if math.Abs(c.Latitude-lat) > 1e-9 || math.Abs(c.Longitude-long) > 1e-9 {
		t.Errorf("Resolve() = %v, goexif has %f, %f", c, lat, long)
	}
}

func gpsMap(entries ...Entry) *Map {
	m := NewMap()
	for _, e := range entries {
		e.ID, e.IFD, _ = LookupTag(e.Name)
		m.Add(e)
	}
	return m
}

func TestResolveByTagNumber(t *testing.T) {
	lat := Entry{Name: "GPSLatitude", Value: Rationals(tiff.DTRational, dms(40, 26, 46)...)}
	lon := Entry{Name: "GPSLongitude", Value: Rationals(tiff.DTRational, dms(79, 58, 36)...)}
	c, err := Resolve(gpsMap(lat, lon, Entry{Name: "GPSLongitudeRef", Value: Text("W")}))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if math.Abs(c.Longitude+79.976666) > 1e-6 {
		t.Errorf("Resolve() = %v", c)
	}

	// A name alone, without the tag number, is not a GPS tag.
	named := NewMap()
	named.Add(Entry{Name: "GPSLatitude", IFD: DirGPS, Value: lat.Value})
	named.Add(Entry{Name: "GPSLongitude", IFD: DirGPS, Value: lon.Value})
	if _, err := Resolve(named); !errors.Is(err, core.ErrInvalidCoordinate) {
		t.Errorf("Resolve(unnumbered) error = %v", err)
	}
}

func TestResolveInvalid(t *testing.T) {
	lat := Entry{Name: "GPSLatitude", Value: Rationals(tiff.DTRational, dms(40, 26, 46)...)}
	lon := Entry{Name: "GPSLongitude", Value: Rationals(tiff.DTRational, dms(79, 58, 36)...)}
	tests := map[string]*Map{
		"nil":               nil,
		"empty":             NewMap(),
		"missing longitude": gpsMap(lat),
		"latitude as text":  gpsMap(Entry{Name: "GPSLatitude", Value: Text("40.4")}, lon),
		"latitude over 90": gpsMap(
			Entry{Name: "GPSLatitude", Value: Rationals(tiff.DTRational, dms(91, 0, 0)...)}, lon),
		"longitude over 180": gpsMap(lat,
			Entry{Name: "GPSLongitude", Value: Rationals(tiff.DTRational, dms(181, 0, 0)...)}),
		"zero denominator": gpsMap(lat,
			Entry{Name: "GPSLongitude", Value: Rationals(tiff.DTRational, Rational{79, 1}, Rational{58, 0}, Rational{36, 1})}),
	}
	for name, gps := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Resolve(gps); !errors.Is(err, core.ErrInvalidCoordinate) {
				t.Errorf("Resolve() error = %v, want ErrInvalidCoordinate", err)
			}
		})
	}
}

func TestResolveFromDecodedTIFF(t *testing.T) {
	payload := testimg.TIFF{
		Order: binary.BigEndian,
		GPS: []testimg.Tag{
			testimg.ASCII(0x01, "S"),
			testimg.Rational(0x02, testimg.DMS(33, 51, 54)...),
			testimg.ASCII(0x03, "E"),
			testimg.Rational(0x04, testimg.DMS(151, 12, 36)...),
		},
	}.Bytes()
	c, err := Resolve(mustDecode(t, payload).GPS)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if math.Abs(c.Latitude+33.865) > 1e-6 || math.Abs(c.Longitude-151.21) > 1e-6 {
		t.Errorf("Resolve() = %v", c)
	}
}

func TestFuzz(t *testing.T) {
	c := Coordinate{Latitude: 40.446111, Longitude: -79.976666}
	tests := []struct {
		p    Precision
		want Coordinate
	}{
		{Exact, Coordinate{40.446111, -79.976666}},
		{Street, Coordinate{40.446, -79.977}},
		{Neighborhood, Coordinate{40.45, -79.98}},
		{City, Coordinate{40.4, -80.0}},
		{Region, Coordinate{40, -80}},
	}
	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			got := c.Fuzz(tt.p)
			if math.Abs(got.Latitude-tt.want.Latitude) > 1e-9 || math.Abs(got.Longitude-tt.want.Longitude) > 1e-9 {
				t.Errorf("Fuzz(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestParsePrecision(t *testing.T) {
	for _, p := range []Precision{Exact, Street, Neighborhood, City, Region} {
		got, err := ParsePrecision(strings.ToUpper(p.String()))
		if err != nil || got != p {
			t.Errorf("ParsePrecision(%q) = %v, %v", p, got, err)
		}
	}
	if _, err := ParsePrecision("block"); err == nil {
		t.Error("ParsePrecision(block) succeeded")
	}
}
