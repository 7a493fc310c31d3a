package mediatypes

import (
	"path/filepath"
	"strings"
)

// Format is the decode pipeline a file goes through. It is resolved once per
// path from the file extension.
type Format int

const (
	// FormatUnknown is any extension outside the allow-list.
	FormatUnknown Format = iota
	// FormatRaster is a common raster container decoded directly.
	FormatRaster
	// FormatRaw is a camera sensor dump that needs demosaicing.
	FormatRaw
)

// String returns the metric/log label for the format.
func (f Format) String() string {
	switch f {
	case FormatRaster:
		return "raster"
	case FormatRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// RasterExtensions maps lowercase extensions to supported raster formats.
var RasterExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

// RawExtensions maps lowercase extensions to supported camera RAW formats.
var RawExtensions = map[string]bool{
	".nef": true,
}

// ExifExtensions lists the formats that may carry a readable EXIF block.
// NEF is TIFF based, so the same reader handles it.
var ExifExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".nef":  true,
}

// Ext returns the lowercase extension of path including the leading dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// GetFormat returns the Format for a lowercase extension such as ".nef".
func GetFormat(ext string) Format {
	if RawExtensions[ext] {
		return FormatRaw
	}
	if RasterExtensions[ext] {
		return FormatRaster
	}
	return FormatUnknown
}

// DetectFormat returns the Format for path, ignoring extension case.
func DetectFormat(path string) Format {
	return GetFormat(Ext(path))
}

// IsImage reports whether the extension is in the allow-list.
func IsImage(ext string) bool {
	return GetFormat(ext) != FormatUnknown
}

// IsRaw reports whether path is a camera RAW file.
func IsRaw(path string) bool {
	return DetectFormat(path) == FormatRaw
}

// HasExif reports whether path may carry EXIF capture metadata.
func HasExif(path string) bool {
	return ExifExtensions[Ext(path)]
}
