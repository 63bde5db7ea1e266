// Package thumbnail turns document files into preview bitmaps.
//
// A Registry maps file extensions to decoders (JPEG, first page of a PDF,
// other raster formats). A Pipeline decodes a file through the registry,
// shrinks it when it exceeds the requested bounds and flattens it into an
// opaque 3-channel Bitmap. Failures never escape as errors from
// Pipeline.Thumbnail: an unsupported, missing or corrupt file yields
// ok == false and the caller shows no preview.
//
// Decoding is synchronous and cannot be interrupted; a large PDF page can
// take a long time. Pool bounds the number of concurrent decodes and gives
// each request a deadline after which it is reported as unavailable.
package thumbnail
