package feature

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// IsWAV reports whether the payload starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WAVE"
}

// decodeWAV parses a RIFF/WAVE payload into a mono float64 signal in
// [-1, 1] plus its native sample rate. Multi-channel input is downmixed
// by channel-wise averaging.
func decodeWAV(data []byte) (signal []float64, sampleRate int, err error) {
	if !IsWAV(data) {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE payload")
	}

	var (
		format     uint16
		channels   int
		rate       int
		bitDepth   int
		sampleData []byte
	)

	// Walk the chunk list; fmt must precede data.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too small (%d bytes)", size)
			}
			format = binary.LittleEndian.Uint16(data[body : body+2])
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			rate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			sampleData = data[body : body+size]
		}
		// Chunks are word-aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
		if sampleData != nil && rate != 0 {
			break
		}
	}

	if rate == 0 || channels == 0 {
		return nil, 0, fmt.Errorf("missing fmt chunk")
	}
	if sampleData == nil {
		return nil, 0, fmt.Errorf("missing data chunk")
	}
	if format != wavFormatPCM && format != wavFormatFloat {
		return nil, 0, fmt.Errorf("unsupported wav format code %d", format)
	}

	frames, err := decodeSamples(sampleData, format, bitDepth, channels)
	if err != nil {
		return nil, 0, err
	}
	return frames, rate, nil
}

// decodeSamples converts interleaved sample data to a mono float64 signal.
func decodeSamples(raw []byte, format uint16, bitDepth, channels int) ([]float64, error) {
	bytesPerSample := bitDepth / 8
	if bytesPerSample == 0 {
		return nil, fmt.Errorf("invalid bit depth %d", bitDepth)
	}
	frameBytes := bytesPerSample * channels
	numFrames := len(raw) / frameBytes
	if numFrames == 0 {
		return nil, fmt.Errorf("empty data chunk")
	}

	read, err := sampleReader(format, bitDepth)
	if err != nil {
		return nil, err
	}

	signal := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		base := i * frameBytes
		var sum float64
		for c := 0; c < channels; c++ {
			sum += read(raw[base+c*bytesPerSample:])
		}
		signal[i] = sum / float64(channels)
	}
	return signal, nil
}

// sampleReader returns a decoder for one sample, normalized to [-1, 1].
func sampleReader(format uint16, bitDepth int) (func([]byte) float64, error) {
	switch {
	case format == wavFormatPCM && bitDepth == 8:
		// 8-bit PCM is unsigned.
		return func(b []byte) float64 {
			return (float64(b[0]) - 128) / 128
		}, nil
	case format == wavFormatPCM && bitDepth == 16:
		return func(b []byte) float64 {
			return float64(int16(binary.LittleEndian.Uint16(b))) / 32768
		}, nil
	case format == wavFormatPCM && bitDepth == 24:
		return func(b []byte) float64 {
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			if v&0x800000 != 0 {
				v |= ^int32(0xffffff)
			}
			return float64(v) / 8388608
		}, nil
	case format == wavFormatPCM && bitDepth == 32:
		return func(b []byte) float64 {
			return float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648
		}, nil
	case format == wavFormatFloat && bitDepth == 32:
		return func(b []byte) float64 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		}, nil
	case format == wavFormatFloat && bitDepth == 64:
		return func(b []byte) float64 {
			return math.Float64frombits(binary.LittleEndian.Uint64(b))
		}, nil
	}
	return nil, fmt.Errorf("unsupported sample encoding (format %d, %d-bit)", format, bitDepth)
}

// EncodeWAV renders a mono float64 signal as a 16-bit PCM WAV payload.
func EncodeWAV(signal []float64, sampleRate int) []byte {
	dataLen := len(signal) * 2
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i, s := range signal {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(int16(s*32767)))
	}
	return buf
}
