// Package codec wraps the external audio transcoding collaborator used
// to convert non-WAV containers (WebM, Ogg, ...) into PCM WAV before
// feature extraction. The collaborator is optional infrastructure: when
// it is unavailable, extraction of non-WAV payloads fails with a
// CODEC_UNAVAILABLE error and the classification cascade degrades.
package codec
