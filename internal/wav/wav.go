// Package wav writes and reads the single-channel 16-bit PCM RIFF/WAVE
// container used for synthesized audio.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	headerSize    = 44
	bitsPerSample = 16
	channels      = 1
	formatPCM     = 1
)

var (
	ErrNotWAV         = errors.New("not a RIFF/WAVE stream")
	ErrUnsupported    = errors.New("unsupported wav format")
	ErrBadSampleRate  = errors.New("sample rate must be positive")
	ErrMissingDataChk = errors.New("wav data chunk not found")
)

// Encode writes samples as a mono 16-bit PCM WAV stream.
func Encode(w io.Writer, sampleRate int, samples []int16) error {
	if sampleRate <= 0 {
		return ErrBadSampleRate
	}
	dataLen := uint32(len(samples) * 2)
	blockAlign := uint16(channels * bitsPerSample / 8)
	hdr := make([]byte, headerSize)
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36+dataLen)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], formatPCM)
	binary.LittleEndian.PutUint16(hdr[22:24], channels)
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(sampleRate)*uint32(blockAlign))
	binary.LittleEndian.PutUint16(hdr[32:34], blockAlign)
	binary.LittleEndian.PutUint16(hdr[34:36], bitsPerSample)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], dataLen)
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, samples)
}

// EncodeBytes returns the WAV container for samples.
func EncodeBytes(sampleRate int, samples []int16) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(headerSize + len(samples)*2)
	if err := Encode(&buf, sampleRate, samples); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a mono 16-bit PCM WAV stream. Unknown chunks between "fmt "
// and "data" are skipped.
func Decode(r io.Reader) (int, []int16, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrNotWAV, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return 0, nil, ErrNotWAV
	}
	sampleRate := 0
	sawFmt := false
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return 0, nil, ErrMissingDataChk
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])
		switch id {
		case "fmt ":
			if size < 16 {
				return 0, nil, fmt.Errorf("%w: fmt chunk too short", ErrUnsupported)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return 0, nil, err
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			ch := binary.LittleEndian.Uint16(body[2:4])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if format != formatPCM || ch != channels || bits != bitsPerSample {
				return 0, nil, fmt.Errorf("%w: format=%d channels=%d bits=%d", ErrUnsupported, format, ch, bits)
			}
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			sawFmt = true
		case "data":
			if !sawFmt {
				return 0, nil, fmt.Errorf("%w: data before fmt", ErrUnsupported)
			}
			samples := make([]int16, size/2)
			if err := binary.Read(r, binary.LittleEndian, samples); err != nil {
				return 0, nil, err
			}
			return sampleRate, samples, nil
		default:
			skip := int64(size) + int64(size&1)
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return 0, nil, ErrMissingDataChk
			}
		}
	}
}
