package exif

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/ankit-chaubey/image-surgery/core"
)

// Coordinate is a resolved position in signed decimal degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}

var dmsParts = [3]string{"degrees", "minutes", "seconds"}

// ResolveDMS converts degrees, minutes and seconds plus a one-letter
// hemisphere reference into decimal degrees. S and W give a negative
// result. With an empty reference the sign of the degrees is kept.
func ResolveDMS(dms []Rational, ref string) (float64, error) {
	if len(dms) < 3 {
		return 0, errors.Wrapf(core.ErrInvalidCoordinate, "need degrees, minutes and seconds, got %d values", len(dms))
	}
	var parts [3]float64
	for i := range parts {
		f, err := dms[i].Float()
		if err != nil {
			return 0, errors.Wrapf(core.ErrInvalidCoordinate, "%s: %v", dmsParts[i], err)
		}
		parts[i] = f
	}
	decimal := math.Abs(parts[0]) + math.Abs(parts[1])/60 + math.Abs(parts[2])/3600

	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "N", "E":
	case "S", "W":
		decimal = -decimal
	case "":
		if parts[0] < 0 {
			decimal = -decimal
		}
	default:
		return 0, errors.Wrapf(core.ErrInvalidCoordinate, "reference %q", ref)
	}
	return decimal, nil
}

// Resolve reads GPSLatitude/GPSLongitude and their references from a GPS
// directory and returns the position.
func Resolve(gps *Map) (Coordinate, error) {
	if gps.Len() == 0 {
		return Coordinate{}, errors.Wrap(core.ErrInvalidCoordinate, "no GPS data")
	}
	lat, err := resolveAxis(gps, TagGPSLatitude, TagGPSLatitudeRef, 90)
	if err != nil {
		return Coordinate{}, err
	}
	lon, err := resolveAxis(gps, TagGPSLongitude, TagGPSLongitudeRef, 180)
	if err != nil {
		return Coordinate{}, err
	}
	return Coordinate{Latitude: lat, Longitude: lon}, nil
}

func resolveAxis(gps *Map, id, refID TagID, limit float64) (float64, error) {
	name := TagName(DirGPS, id)
	v, ok := gps.TagValue(id)
	if !ok {
		return 0, errors.Wrapf(core.ErrInvalidCoordinate, "%s missing", name)
	}
	if v.Kind != KindRational && v.Kind != KindRationalArray {
		return 0, errors.Wrapf(core.ErrInvalidCoordinate, "%s is %s, not rational", name, v.Kind)
	}
	ref, _ := gps.TagValue(refID)
	deg, err := ResolveDMS(v.Rationals(), ref.Text())
	if err != nil {
		return 0, errors.WithMessage(err, name)
	}
	if math.Abs(deg) > limit {
		return 0, errors.Wrapf(core.ErrInvalidCoordinate, "%s %.6f outside ±%.0f", name, deg, limit)
	}
	return deg, nil
}

// Precision is how many decimal places Fuzz keeps.
type Precision int

const (
	Exact        Precision = 6 // about 1 m
	Street       Precision = 3 // about 100 m
	Neighborhood Precision = 2 // about 1 km
	City         Precision = 1 // about 10 km
	Region       Precision = 0 // about 100 km
)

func (p Precision) String() string {
	switch p {
	case Exact:
		return "exact"
	case Street:
		return "street"
	case Neighborhood:
		return "neighborhood"
	case City:
		return "city"
	case Region:
		return "region"
	default:
		return fmt.Sprintf("%d decimals", int(p))
	}
}

// ParsePrecision accepts a level name as returned by Precision.String.
func ParsePrecision(s string) (Precision, error) {
	for _, p := range []Precision{Exact, Street, Neighborhood, City, Region} {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return 0, errors.Errorf("unknown precision %q", s)
}

// Fuzz rounds both axes to p decimal places.
func (c Coordinate) Fuzz(p Precision) Coordinate {
	scale := math.Pow(10, float64(p))
	return Coordinate{
		Latitude:  math.Round(c.Latitude*scale) / scale,
		Longitude: math.Round(c.Longitude*scale) / scale,
	}
}
