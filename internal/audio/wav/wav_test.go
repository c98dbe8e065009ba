package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func silence(n int) []byte { return make([]byte, n) }

func TestEncodeThreeSecondsOfSilence(t *testing.T) {
	// three chunks of one second each at 16 kHz mono 16-bit
	frames := [][]byte{silence(32000), silence(32000), silence(32000)}

	enc, err := Encode(frames, 16000, 1, 2)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if enc.Name != "audio.wav" {
		t.Fatalf("unexpected name %q", enc.Name)
	}
	if enc.Duration != 3*time.Second {
		t.Fatalf("expected 3s, got %v", enc.Duration)
	}

	d := enc.Data
	if string(d[0:4]) != "RIFF" || string(d[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE header: %q %q", d[0:4], d[8:12])
	}
	if riff := binary.LittleEndian.Uint32(d[4:8]); int(riff) != len(d)-8 {
		t.Fatalf("riff size %d does not match file size %d", riff, len(d))
	}

	info, err := Inspect(d)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 1 || info.SampleWidth != 2 {
		t.Fatalf("unexpected format %+v", info)
	}
	if info.DataBytes != 96000 {
		t.Fatalf("expected 96000 data bytes, got %d", info.DataBytes)
	}
	if info.Duration != 3*time.Second {
		t.Fatalf("expected 3s from header, got %v", info.Duration)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	frames := [][]byte{{0x01, 0x00, 0xFF, 0x7F}, {0x00, 0x80, 0x10, 0x20}}

	a, err := Encode(frames, 16000, 1, 2)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	b, err := Encode(frames, 16000, 1, 2)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(a.Data, b.Data) {
		t.Fatalf("encoding differs between runs")
	}
}

func TestEncodePreservesSampleBytes(t *testing.T) {
	frames := [][]byte{{0x01, 0x00, 0xFF, 0x7F}, {0x00, 0x80, 0x10, 0x20}}
	want := []byte{0x01, 0x00, 0xFF, 0x7F, 0x00, 0x80, 0x10, 0x20}

	enc, err := Encode(frames, 16000, 1, 2)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.HasSuffix(enc.Data, want) {
		t.Fatalf("pcm payload not preserved: % x", enc.Data[len(enc.Data)-len(want):])
	}
}

func TestEncodeRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name     string
		frames   [][]byte
		rate     int
		channels int
		width    int
	}{
		{"no chunks", nil, 16000, 1, 2},
		{"empty chunks", [][]byte{{}, {}}, 16000, 1, 2},
		{"zero channels", [][]byte{silence(4)}, 16000, 0, 2},
		{"zero rate", [][]byte{silence(4)}, 0, 1, 2},
		{"wide samples", [][]byte{silence(8)}, 16000, 1, 5},
		{"partial frame", [][]byte{silence(3)}, 16000, 1, 2},
	}
	for _, tc := range cases {
		_, err := Encode(tc.frames, tc.rate, tc.channels, tc.width)
		var ee *EncodingError
		if !errors.As(err, &ee) {
			t.Fatalf("%s: expected EncodingError, got %v", tc.name, err)
		}
	}
}

func TestInspectRejectsGarbage(t *testing.T) {
	if _, err := Inspect([]byte("definitely not a wav file")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEncodePatchesHeaderSizes(t *testing.T) {
	frames := [][]byte{silence(2048), silence(2048), silence(2048), silence(2048), silence(2048)}

	enc, err := Encode(frames, 16000, 1, 2)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	d := enc.Data
	idx := bytes.Index(d, []byte("data"))
	if idx < 0 {
		t.Fatalf("no data chunk in output")
	}
	if size := binary.LittleEndian.Uint32(d[idx+4 : idx+8]); size != 10240 {
		t.Fatalf("expected data size 10240, got %d", size)
	}
	if len(d) != idx+8+10240 {
		t.Fatalf("payload length %d does not follow the data header", len(d)-idx-8)
	}
	if riff := binary.LittleEndian.Uint32(d[4:8]); int(riff) != len(d)-8 {
		t.Fatalf("riff size %d does not match file size %d", riff, len(d))
	}
}
