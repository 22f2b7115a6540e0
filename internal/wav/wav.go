// Package wav provides in-memory parsing, re-serialization and merging of
// RIFF/WAVE linear-PCM streams.
//
// The synthesis provider occasionally returns WAV payloads whose declared
// chunk sizes do not match the actual payload length. Decode therefore
// treats declared sizes as hints and clamps them to the bytes that are
// really present, and Encode always writes a freshly computed header. Merged
// output never carries any header bytes from the input segments.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// Common WAV processing errors
var (
	// ErrInvalidContainer is returned when the payload is not a RIFF/WAVE stream.
	ErrInvalidContainer = errors.New("not a RIFF/WAVE container")

	// ErrMissingFormatChunk is returned when no fmt chunk precedes the data chunk.
	ErrMissingFormatChunk = errors.New("missing fmt chunk")

	// ErrMissingDataChunk is returned when the container has no data chunk.
	ErrMissingDataChunk = errors.New("missing data chunk")

	// ErrUnsupportedFormat is returned for compressed (non-PCM) streams.
	ErrUnsupportedFormat = errors.New("unsupported audio format (PCM only)")

	// ErrNoSegments is returned when Merge is called with nothing to merge.
	ErrNoSegments = errors.New("no audio segments to merge")

	// ErrParamsMismatch is returned when a segment's stream parameters differ
	// from the first segment's. Dropping such a segment instead would produce
	// audio shorter than the source text without any error signal.
	ErrParamsMismatch = errors.New("audio parameters differ between segments")
)

// Params describes the PCM stream parameters shared by all merged segments.
type Params struct {
	Channels    uint16
	SampleWidth uint16 // bytes per sample per channel
	SampleRate  uint32
}

// FrameSize returns the number of bytes in one sample frame.
func (p Params) FrameSize() int {
	return int(p.Channels) * int(p.SampleWidth)
}

// IsRIFF reports whether the payload starts with a RIFF signature. Used as a
// cheap structural sanity check before a downloaded segment is accepted.
func IsRIFF(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte("RIFF"))
}

// Decode parses a WAV payload into its stream parameters and raw sample
// frames. Declared chunk sizes are clamped to the bytes actually present.
func Decode(data []byte) (Params, []byte, error) {
	if len(data) < 12 || !IsRIFF(data) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return Params{}, nil, ErrInvalidContainer
	}

	var params Params
	haveFmt := false
	pos := 12

	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := data[pos+8:]
		if size > len(body) {
			size = len(body)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return Params{}, nil, fmt.Errorf("fmt chunk too short (%d bytes): %w", size, ErrInvalidContainer)
			}
			audioFormat := binary.LittleEndian.Uint16(body[0:2])
			if audioFormat != 1 {
				return Params{}, nil, fmt.Errorf("format tag %d: %w", audioFormat, ErrUnsupportedFormat)
			}
			params.Channels = binary.LittleEndian.Uint16(body[2:4])
			params.SampleRate = binary.LittleEndian.Uint32(body[4:8])
			bitsPerSample := binary.LittleEndian.Uint16(body[14:16])
			params.SampleWidth = bitsPerSample / 8
			if params.Channels == 0 || params.SampleWidth == 0 || params.SampleRate == 0 {
				return Params{}, nil, fmt.Errorf("zero-valued fmt field: %w", ErrInvalidContainer)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return Params{}, nil, ErrMissingFormatChunk
			}
			return params, body[:size], nil
		}

		// Chunks are word-aligned; odd sizes carry a pad byte.
		pos += 8 + size
		if size%2 == 1 {
			pos++
		}
	}

	if !haveFmt {
		return Params{}, nil, ErrMissingFormatChunk
	}
	return Params{}, nil, ErrMissingDataChunk
}

// Encode serializes sample frames under a freshly computed canonical header.
// Declared size fields are derived from len(frames), never copied from input.
func Encode(params Params, frames []byte) []byte {
	byteRate := params.SampleRate * uint32(params.FrameSize())
	buf := bytes.NewBuffer(make([]byte, 0, 44+len(frames)))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(frames)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, params.Channels)
	binary.Write(buf, binary.LittleEndian, params.SampleRate)
	binary.Write(buf, binary.LittleEndian, byteRate)
	binary.Write(buf, binary.LittleEndian, uint16(params.FrameSize()))
	binary.Write(buf, binary.LittleEndian, params.SampleWidth*8)

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(frames)))
	buf.Write(frames)

	return buf.Bytes()
}

// Merge reassembles index-keyed WAV segments into one stream. Segments are
// concatenated in ascending index order regardless of map iteration order,
// the first segment's parameters become canonical, and any segment whose
// parameters differ fails the whole merge. A single segment still goes
// through the full decode/encode round trip so its header is sanitized.
func Merge(parts map[int][]byte) ([]byte, error) {
	if len(parts) == 0 {
		return nil, ErrNoSegments
	}

	indices := make([]int, 0, len(parts))
	for idx := range parts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	var canonical Params
	var frames []byte

	for i, idx := range indices {
		params, segFrames, err := Decode(parts[idx])
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", idx, err)
		}
		if i == 0 {
			canonical = params
		} else if params != canonical {
			return nil, fmt.Errorf("segment %d has %+v, want %+v: %w", idx, params, canonical, ErrParamsMismatch)
		}
		frames = append(frames, segFrames...)
	}

	return Encode(canonical, frames), nil
}
