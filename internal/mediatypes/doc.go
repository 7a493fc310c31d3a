/*
Package mediatypes classifies image files by the decode pipeline they need.

Every path is resolved once to a Format:

	FormatRaw     camera sensor dumps (.nef), demosaiced through libvips
	FormatRaster  common raster containers (.jpg, .png, .webp, ...)
	FormatUnknown anything else; the scanner never enumerates these

Extension matching is case-insensitive:

	mediatypes.DetectFormat("/photos/DSC_0001.NEF") // FormatRaw
	mediatypes.DetectFormat("/photos/holiday.JPG")  // FormatRaster

The Format value is also used as the "format" label on decode metrics, so its
String form is kept short and stable.
*/
package mediatypes
