package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

var mono16k = Params{Channels: 1, SampleWidth: 2, SampleRate: 16000}

// buildWAV assembles a valid WAV payload for tests.
func buildWAV(t *testing.T, params Params, frames []byte) []byte {
	t.Helper()
	return Encode(params, frames)
}

// corruptDeclaredSizes rewrites the RIFF and data size fields with bogus
// values, mimicking the malformed headers the provider sometimes returns.
func corruptDeclaredSizes(data []byte) []byte {
	out := append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(out[4:8], 0xFFFFFF)
	binary.LittleEndian.PutUint32(out[40:44], 0xFFFFFF)
	return out
}

func TestDecodeRoundTrip(t *testing.T) {
	frames := []byte{1, 2, 3, 4, 5, 6}
	data := buildWAV(t, mono16k, frames)

	params, got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if params != mono16k {
		t.Errorf("params = %+v, want %+v", params, mono16k)
	}
	if !bytes.Equal(got, frames) {
		t.Errorf("frames = %v, want %v", got, frames)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrInvalidContainer},
		{"not riff", []byte("OggS already looks different"), ErrInvalidContainer},
		{"riff but not wave", append([]byte("RIFF\x10\x00\x00\x00JUNK"), make([]byte, 16)...), ErrInvalidContainer},
		{"no data chunk", buildWAV(t, mono16k, nil)[:36], ErrMissingDataChunk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decode(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("Decode error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeClampsLyingDataSize(t *testing.T) {
	frames := []byte{9, 9, 9, 9}
	data := corruptDeclaredSizes(buildWAV(t, mono16k, frames))

	_, got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, frames) {
		t.Errorf("frames = %v, want %v", got, frames)
	}
}

func TestDecodeSkipsExtraChunks(t *testing.T) {
	// WAV with a LIST chunk between fmt and data.
	frames := []byte{7, 8}
	base := buildWAV(t, mono16k, frames)
	var buf bytes.Buffer
	buf.Write(base[:36]) // up to end of fmt chunk
	buf.WriteString("LIST")
	binary.Write(&buf, binary.LittleEndian, uint32(4))
	buf.WriteString("INFO")
	buf.Write(base[36:]) // data chunk
	data := buf.Bytes()
	binary.LittleEndian.PutUint32(data[4:8], uint32(len(data)-8))

	params, got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if params != mono16k || !bytes.Equal(got, frames) {
		t.Errorf("got params %+v frames %v", params, got)
	}
}

func TestEncodeHeaderSizesMatchPayload(t *testing.T) {
	frames := make([]byte, 1234)
	data := Encode(mono16k, frames)

	if len(data) != 44+len(frames) {
		t.Fatalf("len = %d, want %d", len(data), 44+len(frames))
	}
	if riffSize := binary.LittleEndian.Uint32(data[4:8]); riffSize != uint32(len(data)-8) {
		t.Errorf("RIFF size = %d, want %d", riffSize, len(data)-8)
	}
	if dataSize := binary.LittleEndian.Uint32(data[40:44]); dataSize != uint32(len(frames)) {
		t.Errorf("data size = %d, want %d", dataSize, len(frames))
	}
	if byteRate := binary.LittleEndian.Uint32(data[28:32]); byteRate != 32000 {
		t.Errorf("byte rate = %d, want 32000", byteRate)
	}
}

func TestMergeOrdersByIndex(t *testing.T) {
	parts := map[int][]byte{
		2: buildWAV(t, mono16k, []byte{5, 6}),
		0: buildWAV(t, mono16k, []byte{1, 2}),
		1: buildWAV(t, mono16k, []byte{3, 4}),
	}

	merged, err := Merge(parts)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	_, frames, err := Decode(merged)
	if err != nil {
		t.Fatalf("Decode merged: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5, 6}
	if !bytes.Equal(frames, want) {
		t.Errorf("frames = %v, want %v", frames, want)
	}
}

func TestMergeDeterministicAcrossMapOrder(t *testing.T) {
	parts := map[int][]byte{}
	for i := 0; i < 8; i++ {
		parts[i] = buildWAV(t, mono16k, []byte{byte(i), byte(i)})
	}

	first, err := Merge(parts)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	for run := 0; run < 10; run++ {
		again, err := Merge(parts)
		if err != nil {
			t.Fatalf("Merge: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("merge output differs between runs")
		}
	}
}

func TestMergeSingleSegmentSanitizesHeader(t *testing.T) {
	frames := []byte{1, 2, 3, 4}
	corrupted := corruptDeclaredSizes(buildWAV(t, mono16k, frames))

	merged, err := Merge(map[int][]byte{0: corrupted})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if dataSize := binary.LittleEndian.Uint32(merged[40:44]); dataSize != uint32(len(frames)) {
		t.Errorf("data size = %d, want %d", dataSize, len(frames))
	}
	if riffSize := binary.LittleEndian.Uint32(merged[4:8]); riffSize != uint32(len(merged)-8) {
		t.Errorf("RIFF size = %d, want %d", riffSize, len(merged)-8)
	}
}

func TestMergeRejectsParameterMismatch(t *testing.T) {
	stereo := Params{Channels: 2, SampleWidth: 2, SampleRate: 16000}
	parts := map[int][]byte{
		0: buildWAV(t, mono16k, []byte{1, 2}),
		1: buildWAV(t, stereo, []byte{3, 4, 5, 6}),
	}

	if _, err := Merge(parts); !errors.Is(err, ErrParamsMismatch) {
		t.Errorf("Merge error = %v, want %v", err, ErrParamsMismatch)
	}
}

func TestMergeEmpty(t *testing.T) {
	if _, err := Merge(nil); !errors.Is(err, ErrNoSegments) {
		t.Errorf("Merge error = %v, want %v", err, ErrNoSegments)
	}
}
