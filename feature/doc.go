// Package feature converts raw audio into fixed-length acoustic feature
// vectors and provides the content hashing and similarity primitives the
// caching layer and classification cascade are built on.
//
// The extraction pipeline is: decode (transcoding non-WAV containers via
// an external codec collaborator) -> downmix to mono -> resample to the
// target rate -> windowed spectral transform -> mel filterbank -> DCT ->
// coefficient averaging across frames. Output dimensionality is fixed
// and constant across calls.
package feature
