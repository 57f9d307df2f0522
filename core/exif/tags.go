package exif

import (
	"fmt"

	"github.com/rwcarlsen/goexif/exif"
)

// TagID is a TIFF/EXIF tag number. Names are only attached when a tag is
// placed into a Map.
type TagID uint16

const (
	TagProcessingSoftware  TagID = 0x000B
	TagImageWidth          TagID = 0x0100
	TagImageLength         TagID = 0x0101
	TagMake                TagID = 0x010F
	TagModel               TagID = 0x0110
	TagOrientation         TagID = 0x0112
	TagSoftware            TagID = 0x0131
	TagDateTime            TagID = 0x0132
	TagArtist              TagID = 0x013B
	TagThumbnailOffset     TagID = 0x0201
	TagCopyright           TagID = 0x8298
	TagExifIFD             TagID = 0x8769
	TagGPSIFD              TagID = 0x8825
	TagDateTimeOriginal    TagID = 0x9003
	TagDateTimeDigitized   TagID = 0x9004
	TagMakerNote           TagID = 0x927C
	TagSubSecTime          TagID = 0x9290
	TagSubSecTimeOriginal  TagID = 0x9291
	TagSubSecTimeDigitized TagID = 0x9292
	TagPixelXDimension     TagID = 0xA002
	TagPixelYDimension     TagID = 0xA003
	TagInteropIFD          TagID = 0xA005
	TagCameraOwnerName     TagID = 0xA430
	TagBodySerialNumber    TagID = 0xA431
	TagLensMake            TagID = 0xA433
	TagLensModel           TagID = 0xA434
	TagLensSerialNumber    TagID = 0xA435
	TagCameraSerialNumber  TagID = 0xC62F
	TagOwnerName           TagID = 0xFDE8
	TagSerialNumber        TagID = 0xFDE9
)

// GPS sub-IFD tag numbers. They overlap the IFD0 range and only mean
// something inside a GPS Map.
const (
	TagGPSLatitudeRef  TagID = 0x0001
	TagGPSLatitude     TagID = 0x0002
	TagGPSLongitudeRef TagID = 0x0003
	TagGPSLongitude    TagID = 0x0004
)

// Directory identifies which IFD a tag was read from.
type Directory int

const (
	DirNone Directory = iota // not from an IFD, e.g. a PNG text chunk
	DirIFD0
	DirExif
	DirGPS
	DirInterop
	DirIFD1
)

func (d Directory) String() string {
	switch d {
	case DirIFD0:
		return "IFD0"
	case DirExif:
		return "Exif"
	case DirGPS:
		return "GPS"
	case DirInterop:
		return "Interop"
	case DirIFD1:
		return "IFD1"
	default:
		return "none"
	}
}

// IFD0, Exif sub-IFD and IFD1 tags.
var tiffTags = map[TagID]exif.FieldName{
	TagProcessingSoftware:  "ProcessingSoftware",
	0x00FE:                 "NewSubfileType",
	0x00FF:                 "SubfileType",
	TagImageWidth:          exif.ImageWidth,
	TagImageLength:         exif.ImageLength,
	0x0102:                 exif.BitsPerSample,
	0x0103:                 exif.Compression,
	0x0106:                 exif.PhotometricInterpretation,
	0x010D:                 "DocumentName",
	0x010E:                 exif.ImageDescription,
	TagMake:                exif.Make,
	TagModel:               exif.Model,
	0x0111:                 "StripOffsets",
	TagOrientation:         exif.Orientation,
	0x0115:                 exif.SamplesPerPixel,
	0x0116:                 "RowsPerStrip",
	0x0117:                 "StripByteCounts",
	0x011A:                 exif.XResolution,
	0x011B:                 exif.YResolution,
	0x011C:                 exif.PlanarConfiguration,
	0x0128:                 exif.ResolutionUnit,
	0x012D:                 "TransferFunction",
	TagSoftware:            exif.Software,
	TagDateTime:            exif.DateTime,
	TagArtist:              exif.Artist,
	0x013C:                 "HostComputer",
	0x013E:                 "WhitePoint",
	0x013F:                 "PrimaryChromaticities",
	TagThumbnailOffset:     "JPEGInterchangeFormat",
	0x0202:                 "JPEGInterchangeFormatLength",
	0x0211:                 "YCbCrCoefficients",
	0x0212:                 exif.YCbCrSubSampling,
	0x0213:                 exif.YCbCrPositioning,
	0x0214:                 "ReferenceBlackWhite",
	0x02BC:                 "ApplicationNotes",
	0x4746:                 "Rating",
	TagCopyright:           exif.Copyright,
	0x829A:                 exif.ExposureTime,
	0x829D:                 exif.FNumber,
	0x83BB:                 "IPTCNAA",
	0x8773:                 "InterColorProfile",
	0x8822:                 exif.ExposureProgram,
	0x8824:                 exif.SpectralSensitivity,
	0x8827:                 exif.ISOSpeedRatings,
	0x8828:                 exif.OECF,
	0x8830:                 "SensitivityType",
	0x8832:                 "RecommendedExposureIndex",
	0x9000:                 exif.ExifVersion,
	TagDateTimeOriginal:    exif.DateTimeOriginal,
	TagDateTimeDigitized:   exif.DateTimeDigitized,
	0x9010:                 "OffsetTime",
	0x9011:                 "OffsetTimeOriginal",
	0x9012:                 "OffsetTimeDigitized",
	0x9101:                 exif.ComponentsConfiguration,
	0x9102:                 exif.CompressedBitsPerPixel,
	0x9201:                 exif.ShutterSpeedValue,
	0x9202:                 exif.ApertureValue,
	0x9203:                 exif.BrightnessValue,
	0x9204:                 exif.ExposureBiasValue,
	0x9205:                 exif.MaxApertureValue,
	0x9206:                 exif.SubjectDistance,
	0x9207:                 exif.MeteringMode,
	0x9208:                 exif.LightSource,
	0x9209:                 exif.Flash,
	0x920A:                 exif.FocalLength,
	0x9214:                 exif.SubjectArea,
	TagMakerNote:           exif.MakerNote,
	0x9286:                 exif.UserComment,
	TagSubSecTime:          exif.SubSecTime,
	TagSubSecTimeOriginal:  exif.SubSecTimeOriginal,
	TagSubSecTimeDigitized: exif.SubSecTimeDigitized,
	0x9C9B:                 exif.XPTitle,
	0x9C9C:                 exif.XPComment,
	0x9C9D:                 exif.XPAuthor,
	0x9C9E:                 exif.XPKeywords,
	0x9C9F:                 exif.XPSubject,
	0xA000:                 exif.FlashpixVersion,
	0xA001:                 exif.ColorSpace,
	TagPixelXDimension:     exif.PixelXDimension,
	TagPixelYDimension:     exif.PixelYDimension,
	0xA004:                 exif.RelatedSoundFile,
	0xA20B:                 exif.FlashEnergy,
	0xA20E:                 exif.FocalPlaneXResolution,
	0xA20F:                 exif.FocalPlaneYResolution,
	0xA210:                 exif.FocalPlaneResolutionUnit,
	0xA214:                 exif.SubjectLocation,
	0xA215:                 exif.ExposureIndex,
	0xA217:                 exif.SensingMethod,
	0xA300:                 exif.FileSource,
	0xA301:                 exif.SceneType,
	0xA302:                 exif.CFAPattern,
	0xA401:                 exif.CustomRendered,
	0xA402:                 exif.ExposureMode,
	0xA403:                 exif.WhiteBalance,
	0xA404:                 exif.DigitalZoomRatio,
	0xA405:                 exif.FocalLengthIn35mmFilm,
	0xA406:                 exif.SceneCaptureType,
	0xA407:                 exif.GainControl,
	0xA408:                 exif.Contrast,
	0xA409:                 exif.Saturation,
	0xA40A:                 exif.Sharpness,
	0xA40B:                 exif.DeviceSettingDescription,
	0xA40C:                 exif.SubjectDistanceRange,
	0xA420:                 exif.ImageUniqueID,
	TagCameraOwnerName:     "CameraOwnerName",
	TagBodySerialNumber:    "BodySerialNumber",
	0xA432:                 "LensSpecification",
	TagLensMake:            exif.LensMake,
	TagLensModel:           exif.LensModel,
	TagLensSerialNumber:    "LensSerialNumber",
	0xA500:                 "Gamma",
	0xC4A5:                 "PrintImageMatching",
	0xC612:                 "DNGVersion",
	TagCameraSerialNumber:  "CameraSerialNumber",
	TagOwnerName:           "OwnerName",
	TagSerialNumber:        "SerialNumber",
}

// GPS sub-IFD tags 0-31.
var gpsTags = map[TagID]exif.FieldName{
	0x00:               exif.GPSVersionID,
	TagGPSLatitudeRef:  exif.GPSLatitudeRef,
	TagGPSLatitude:     exif.GPSLatitude,
	TagGPSLongitudeRef: exif.GPSLongitudeRef,
	TagGPSLongitude:    exif.GPSLongitude,
	0x05:               exif.GPSAltitudeRef,
	0x06:               exif.GPSAltitude,
	0x07:               exif.GPSTimeStamp,
	0x08:               "GPSSatellites",
	0x09:               exif.GPSStatus,
	0x0A:               exif.GPSMeasureMode,
	0x0B:               exif.GPSDOP,
	0x0C:               exif.GPSSpeedRef,
	0x0D:               exif.GPSSpeed,
	0x0E:               exif.GPSTrackRef,
	0x0F:               exif.GPSTrack,
	0x10:               exif.GPSImgDirectionRef,
	0x11:               exif.GPSImgDirection,
	0x12:               exif.GPSMapDatum,
	0x13:               exif.GPSDestLatitudeRef,
	0x14:               exif.GPSDestLatitude,
	0x15:               exif.GPSDestLongitudeRef,
	0x16:               exif.GPSDestLongitude,
	0x17:               exif.GPSDestBearingRef,
	0x18:               exif.GPSDestBearing,
	0x19:               exif.GPSDestDistanceRef,
	0x1A:               exif.GPSDestDistance,
	0x1B:               exif.GPSProcessingMethod,
	0x1C:               exif.GPSAreaInformation,
	0x1D:               exif.GPSDateStamp,
	0x1E:               exif.GPSDifferential,
	0x1F:               "GPSHPositioningError",
}

var interopTags = map[TagID]exif.FieldName{
	0x0001: exif.InteroperabilityIndex,
	0x0002: "InteroperabilityVersion",
	0x1000: "RelatedImageFileFormat",
	0x1001: "RelatedImageWidth",
	0x1002: "RelatedImageLength",
}

// TagName returns the name a tag is stored under when read from dir.
// Unregistered tags get a numeric name qualified by directory, so the same
// unknown number in two directories never collides.
func TagName(dir Directory, id TagID) string {
	switch dir {
	case DirGPS:
		if name, ok := gpsTags[id]; ok {
			return string(name)
		}
		return fmt.Sprintf("GPSTag0x%04X", uint16(id))
	case DirInterop:
		if name, ok := interopTags[id]; ok {
			return string(name)
		}
		return fmt.Sprintf("InteropTag0x%04X", uint16(id))
	case DirExif:
		if name, ok := tiffTags[id]; ok {
			return string(name)
		}
		return fmt.Sprintf("ExifTag0x%04X", uint16(id))
	case DirIFD1:
		return "Thumbnail" + TagName(DirIFD0, id)
	default:
		if name, ok := tiffTags[id]; ok {
			return string(name)
		}
	}
	return fmt.Sprintf("Tag0x%04X", uint16(id))
}

// LookupTag is the inverse of TagName for registered IFD0, Exif, and GPS
// tags.
func LookupTag(name string) (TagID, Directory, bool) {
	for id, n := range tiffTags {
		if string(n) == name {
			return id, DirIFD0, true
		}
	}
	for id, n := range gpsTags {
		if string(n) == name {
			return id, DirGPS, true
		}
	}
	return 0, DirNone, false
}
