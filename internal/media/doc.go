// Package media turns image files into display-ready buffers.
//
// Every buffer a Decoder returns is exactly the requested size: the decoded
// image is scaled to fit (up or down, aspect ratio kept) and centered on a
// black canvas. Raster formats are decoded in-process with imaging; camera
// RAW files go through a RawDecoder, normally the libvips-backed
// VipsRawDecoder, and can be persisted through a BufferCache.
package media
