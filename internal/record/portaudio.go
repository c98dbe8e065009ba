package record

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudio opens the system default input device through PortAudio.
type PortAudio struct{}

// Open initializes PortAudio and starts a blocking input stream.
func (PortAudio) Open(f Format) (Device, error) {
	if f.SampleWidth != 2 {
		return nil, fmt.Errorf("unsupported sample width %d (only 16-bit capture is supported)", f.SampleWidth)
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}

	in := make([]int16, f.ChunkFrames*f.Channels)
	stream, err := portaudio.OpenDefaultStream(f.Channels, 0, float64(f.SampleRate), f.ChunkFrames, in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("open stream failed: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("start stream failed: %w", err)
	}
	return &paDevice{stream: stream, in: in}, nil
}

type paDevice struct {
	stream *portaudio.Stream
	in     []int16
}

// Read returns one chunk as little-endian signed 16-bit PCM. The stream
// buffer is reused by PortAudio, so every chunk is a fresh copy.
func (d *paDevice) Read() ([]byte, error) {
	if err := d.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, err
	}
	chunk := make([]byte, len(d.in)*2)
	for i, v := range d.in {
		binary.LittleEndian.PutUint16(chunk[i*2:], uint16(v))
	}
	return chunk, nil
}

func (d *paDevice) Close() error {
	return errors.Join(d.stream.Stop(), d.stream.Close(), portaudio.Terminate())
}

// InputDevice describes a capture-capable device.
type InputDevice struct {
	Name              string
	HostAPI           string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}

// InputDevices lists devices with at least one input channel.
func InputDevices() ([]InputDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}
	defer portaudio.Terminate()

	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices failed: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()

	var out []InputDevice
	for _, d := range all {
		if d.MaxInputChannels < 1 {
			continue
		}
		dev := InputDevice{
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			Default:           def != nil && def.Name == d.Name,
		}
		if d.HostApi != nil {
			dev.HostAPI = d.HostApi.Name
		}
		out = append(out, dev)
	}
	return out, nil
}
