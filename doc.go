// Package mpix implements a demand-driven, bounded-memory streaming image
// processing pipeline for embedded and resource-constrained environments.
//
// An Image is built by chaining operations over a caller-owned source
// buffer: format conversion, Bayer debayering, spatial filters, palette
// encode/decode, resize/subsample/crop, ISP corrections, and baseline
// JPEG/QOI encoding. No stage buffers a whole frame; each one holds only
// the handful of rows its window needs, so total engine memory is
// bounded by the sum of each stage's window size times its line pitch,
// independent of image height.
//
// Basic usage:
//
//	img := mpix.FromBuf(rgb, mpix.Format{Width: w, Height: h, FourCC: mpix.RGB3})
//	n, err := img.Resize(w/2, h/2).JPEGEncode(mpix.JPEGOptions{Quality: 85}).ToBuf(dst)
package mpix
