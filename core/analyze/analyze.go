// Package analyze inspects decoded metadata for internal inconsistencies
// and privacy exposure. It is informational only and never changes the map
// it is given.
package analyze

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ankit-chaubey/image-surgery/core"
	"github.com/ankit-chaubey/image-surgery/core/exif"
)

// Severity orders findings.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "info"
	}
}

// Finding is one (severity, message) pair.
type Finding struct {
	Severity Severity
	Message  string
}

// RiskLevel buckets the privacy score.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (l RiskLevel) String() string {
	switch l {
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "low"
	}
}

// LevelFor maps a privacy score to its level.
func LevelFor(score int) RiskLevel {
	switch {
	case score >= 60:
		return RiskCritical
	case score >= 40:
		return RiskHigh
	case score >= 20:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Report is the outcome of Analyze.
type Report struct {
	Findings        []Finding // most severe first
	Score           int
	Level           RiskLevel
	SensitiveFields []string // groups that contributed to Score, in rule order
	Warnings        []string // one line per contributing group
}

// Analyze evaluates every rule against m. coord is the resolved position,
// or nil when there is none. A nil m is treated as empty.
func Analyze(m *exif.Map, coord *exif.Coordinate) Report {
	if m == nil {
		m = exif.NewMap()
	}
	var r Report
	for _, rule := range []func(*exif.Map, *exif.Coordinate) []Finding{
		gpsReferences,
		timestampPrecision,
		technicalCompleteness,
		modifiedAfterCapture,
		resized,
		softwareWithoutTimestamp,
	} {
		r.Findings = append(r.Findings, rule(m, coord)...)
	}
	scorePrivacy(m, coord, &r)

	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		return a.Message < b.Message
	})
	return r
}

// ─── Privacy score ───────────────────────────────────────────────────────────

type sensitiveGroup struct {
	label    string
	points   int
	severity Severity
	warning  string
	matches  func(m *exif.Map, coord *exif.Coordinate) bool
}

func anyOf(ids ...exif.TagID) func(*exif.Map, *exif.Coordinate) bool {
	return func(m *exif.Map, _ *exif.Coordinate) bool {
		for _, id := range ids {
			if m.HasTag(id) {
				return true
			}
		}
		return false
	}
}

var sensitiveGroups = []sensitiveGroup{
	{
		label: "GPS Location", points: 40, severity: SeverityCritical,
		warning: "GPS data reveals where the photo was taken",
		matches: func(m *exif.Map, coord *exif.Coordinate) bool {
			return coord != nil || m.GPSDir().Len() > 0
		},
	},
	{
		label: "Camera Serial Number", points: 25, severity: SeverityWarning,
		warning: "Camera serial number can identify the device and link photos to its owner",
		matches: anyOf(exif.TagBodySerialNumber, exif.TagSerialNumber, exif.TagCameraSerialNumber, exif.TagLensSerialNumber),
	},
	{
		label: "Owner/Artist Name", points: 25, severity: SeverityWarning,
		warning: "Owner or artist name directly identifies the photographer",
		matches: anyOf(exif.TagOwnerName, exif.TagCameraOwnerName, exif.TagArtist, exif.TagCopyright),
	},
	{
		label: "Software", points: 10, severity: SeverityInfo,
		warning: "Software information may reveal editing tools and workflow",
		matches: anyOf(exif.TagSoftware, exif.TagProcessingSoftware),
	},
	{
		label: "Timestamps", points: 15, severity: SeverityInfo,
		warning: "Timestamps reveal when the photo was taken",
		matches: anyOf(exif.TagDateTimeOriginal, exif.TagDateTime, exif.TagDateTimeDigitized),
	},
	{
		label: "Camera Make/Model", points: 10, severity: SeverityInfo,
		warning: "Camera make and model combined with other metadata can identify the photographer",
		matches: func(m *exif.Map, _ *exif.Coordinate) bool {
			return m.HasTag(exif.TagMake) && m.HasTag(exif.TagModel)
		},
	},
	{
		label: "Lens Information", points: 5, severity: SeverityInfo,
		warning: "Lens information may help identify the photographer's equipment",
		matches: anyOf(exif.TagLensModel, exif.TagLensMake),
	},
}

func scorePrivacy(m *exif.Map, coord *exif.Coordinate, r *Report) {
	for _, g := range sensitiveGroups {
		if !g.matches(m, coord) {
			continue
		}
		r.Score += g.points
		r.SensitiveFields = append(r.SensitiveFields, g.label)
		r.Warnings = append(r.Warnings, g.warning)
		r.Findings = append(r.Findings, Finding{Severity: g.severity, Message: g.warning})
	}
	r.Level = LevelFor(r.Score)
}

// ─── Consistency rules ───────────────────────────────────────────────────────

func gpsReferences(m *exif.Map, coord *exif.Coordinate) []Finding {
	gps := m.GPSDir()
	if gps.Len() == 0 {
		return nil
	}
	var out []Finding
	check := func(axis string, valueTag, refID exif.TagID, pos, neg string, resolved *float64) {
		v, ok := gps.TagValue(valueTag)
		if !ok {
			return
		}
		refTag := exif.TagName(exif.DirGPS, refID)
		refVal, ok := gps.TagValue(refID)
		if !ok || refVal.Text() == "" {
			out = append(out, Finding{SeverityWarning, fmt.Sprintf("GPS %s present but %s is missing", axis, refTag)})
			return
		}
		ref := strings.ToUpper(strings.TrimSpace(refVal.Text()))
		if ref != pos && ref != neg {
			out = append(out, Finding{SeverityWarning, fmt.Sprintf("%s %q is not %s or %s", refTag, refVal.Text(), pos, neg)})
			return
		}
		// A signed raw value or a resolved coordinate must agree with the
		// hemisphere letter.
		mismatch := false
		if rats := v.Rationals(); len(rats) > 0 {
			if f, err := rats[0].Float(); err == nil && f < 0 && ref == pos {
				mismatch = true
			}
		}
		if resolved != nil && *resolved != 0 && (*resolved < 0) != (ref == neg) {
			mismatch = true
		}
		if mismatch {
			out = append(out, Finding{SeverityWarning, fmt.Sprintf("GPS %s sign disagrees with reference %s", axis, ref)})
		}
	}
	var lat, lon *float64
	if coord != nil {
		lat, lon = &coord.Latitude, &coord.Longitude
	}
	check("latitude", exif.TagGPSLatitude, exif.TagGPSLatitudeRef, "N", "S", lat)
	check("longitude", exif.TagGPSLongitude, exif.TagGPSLongitudeRef, "E", "W", lon)
	return out
}

// timestamp tags paired with their sub-second companions
var timestampPairs = [][2]exif.TagID{
	{exif.TagDateTime, exif.TagSubSecTime},
	{exif.TagDateTimeOriginal, exif.TagSubSecTimeOriginal},
	{exif.TagDateTimeDigitized, exif.TagSubSecTimeDigitized},
}

func timestampPrecision(m *exif.Map, _ *exif.Coordinate) []Finding {
	var with, without []string
	for _, p := range timestampPairs {
		if !m.HasTag(p[0]) {
			continue
		}
		name := exif.TagName(exif.DirExif, p[0])
		if m.HasTag(p[1]) {
			with = append(with, name)
		} else {
			without = append(without, name)
		}
	}
	if len(with) == 0 || len(without) == 0 {
		return nil
	}
	return []Finding{{SeverityInfo, fmt.Sprintf("inconsistent timestamp precision: %s without sub-second time while %s has it",
		strings.Join(without, ", "), strings.Join(with, ", "))}}
}

func technicalCompleteness(m *exif.Map, _ *exif.Coordinate) []Finding {
	if m.HasTag(exif.TagOrientation) {
		return nil
	}
	for _, id := range []exif.TagID{exif.TagImageWidth, exif.TagImageLength, exif.TagPixelXDimension, exif.TagPixelYDimension} {
		if m.HasTag(id) {
			return []Finding{{SeverityInfo, "incomplete technical metadata: dimensions present without Orientation"}}
		}
	}
	return nil
}

func modifiedAfterCapture(m *exif.Map, _ *exif.Coordinate) []Finding {
	dt, ok1 := m.TagValue(exif.TagDateTime)
	orig, ok2 := m.TagValue(exif.TagDateTimeOriginal)
	if !ok1 || !ok2 || dt.String() == orig.String() {
		return nil
	}
	return []Finding{{SeverityInfo, "DateTime and DateTimeOriginal differ: image may have been modified after capture"}}
}

func resized(m *exif.Map, _ *exif.Coordinate) []Finding {
	px, ok1 := m.TagValue(exif.TagPixelXDimension)
	w, ok2 := m.TagValue(exif.TagImageWidth)
	if !ok1 || !ok2 {
		return nil
	}
	a, okA := px.Int()
	b, okB := w.Int()
	if !okA || !okB || a == b {
		return nil
	}
	return []Finding{{SeverityInfo, fmt.Sprintf("PixelXDimension %d differs from ImageWidth %d: image may have been resized", a, b)}}
}

func softwareWithoutTimestamp(m *exif.Map, _ *exif.Coordinate) []Finding {
	if !m.HasTag(exif.TagSoftware) || m.HasTag(exif.TagDateTime) || m.HasTag(exif.TagDateTimeOriginal) {
		return nil
	}
	return []Finding{{SeverityInfo, "Software tag present without timestamps: metadata may be incomplete"}}
}

// Fields renders the report as display rows.
func (r Report) Fields() []core.MetaField {
	fields := []core.MetaField{
		{Key: "Risk", Value: r.Level.String(), Category: "Privacy"},
		{Key: "Score", Value: fmt.Sprint(r.Score), Category: "Privacy"},
	}
	if len(r.SensitiveFields) > 0 {
		fields = append(fields, core.MetaField{Key: "Sensitive", Value: strings.Join(r.SensitiveFields, ", "), Category: "Privacy"})
	}
	for _, f := range r.Findings {
		fields = append(fields, core.MetaField{Key: f.Severity.String(), Value: f.Message, Category: "Findings"})
	}
	return fields
}
