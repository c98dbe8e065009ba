package wav

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

// FileName is the name the encoded audio is uploaded under.
const FileName = "audio.wav"

// EncodedAudio is a complete in-memory WAV file.
type EncodedAudio struct {
	Name        string
	Data        []byte
	SampleRate  int
	Channels    int
	SampleWidth int // bytes per sample
	Duration    time.Duration
}

// EncodingError reports frames that cannot be turned into a WAV container.
type EncodingError struct {
	Reason string
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wav encoding failed: %s: %v", e.Reason, e.Err)
	}
	return "wav encoding failed: " + e.Reason
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Encode concatenates frames in order and wraps them in a RIFF/WAVE PCM
// header. The output depends only on the input.
func Encode(frames [][]byte, sampleRate, channels, sampleWidth int) (*EncodedAudio, error) {
	switch {
	case channels < 1:
		return nil, &EncodingError{Reason: fmt.Sprintf("invalid channel count %d", channels)}
	case sampleRate <= 0:
		return nil, &EncodingError{Reason: fmt.Sprintf("invalid sample rate %d", sampleRate)}
	case sampleWidth < 1 || sampleWidth > 4:
		return nil, &EncodingError{Reason: fmt.Sprintf("invalid sample width %d", sampleWidth)}
	}

	size := 0
	for _, f := range frames {
		size += len(f)
	}
	if size == 0 {
		return nil, &EncodingError{Reason: "no audio captured"}
	}
	frameSize := channels * sampleWidth
	if size%frameSize != 0 {
		return nil, &EncodingError{Reason: fmt.Sprintf("%d bytes is not a whole number of %d-byte frames", size, frameSize)}
	}

	pcm := make([]byte, 0, size)
	for _, f := range frames {
		pcm = append(pcm, f...)
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples(pcm, sampleWidth),
		SourceBitDepth: sampleWidth * 8,
	}

	// the encoder seeks back to patch the RIFF and data sizes on Close
	out := &writerseeker.WriterSeeker{}
	enc := gowav.NewEncoder(out, sampleRate, sampleWidth*8, channels, 1)
	if err := enc.Write(buf); err != nil {
		return nil, &EncodingError{Reason: "write samples", Err: err}
	}
	if err := enc.Close(); err != nil {
		return nil, &EncodingError{Reason: "finalize header", Err: err}
	}
	data, err := io.ReadAll(out.Reader())
	if err != nil {
		return nil, &EncodingError{Reason: "read encoded file", Err: err}
	}

	return &EncodedAudio{
		Name:        FileName,
		Data:        data,
		SampleRate:  sampleRate,
		Channels:    channels,
		SampleWidth: sampleWidth,
		Duration:    time.Duration(int64(size/frameSize) * int64(time.Second) / int64(sampleRate)),
	}, nil
}

// samples decodes little-endian PCM into the integer form the encoder
// writes back out. 8-bit WAV is unsigned, wider widths are signed.
func samples(pcm []byte, width int) []int {
	out := make([]int, len(pcm)/width)
	for i := range out {
		b := pcm[i*width : (i+1)*width]
		switch width {
		case 1:
			out[i] = int(b[0])
		case 2:
			out[i] = int(int16(uint16(b[0]) | uint16(b[1])<<8))
		case 3:
			v := int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16)
			if v&0x800000 != 0 {
				v |= ^0xFFFFFF
			}
			out[i] = int(v)
		case 4:
			out[i] = int(int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24))
		}
	}
	return out
}

// Info describes a decoded WAV header.
type Info struct {
	SampleRate  int
	Channels    int
	SampleWidth int
	DataBytes   int
	Duration    time.Duration
}

// Inspect parses the header of a WAV file.
func Inspect(data []byte) (Info, error) {
	d := gowav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return Info{}, errors.New("not a valid PCM wav file")
	}
	if err := d.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("locate pcm data: %w", err)
	}
	info := Info{
		SampleRate:  int(d.SampleRate),
		Channels:    int(d.NumChans),
		SampleWidth: int(d.BitDepth) / 8,
		DataBytes:   d.PCMSize,
	}
	if perSecond := info.SampleRate * info.Channels * info.SampleWidth; perSecond > 0 {
		info.Duration = time.Duration(int64(info.DataBytes) * int64(time.Second) / int64(perSecond))
	}
	return info, nil
}
