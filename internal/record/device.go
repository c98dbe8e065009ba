package record

import (
	"fmt"
	"time"
)

// Format is the capture profile used for every recording.
type Format struct {
	SampleRate  int
	Channels    int
	SampleWidth int // bytes per sample
	ChunkFrames int
}

// DefaultFormat is mono, signed 16-bit PCM at 16 kHz in 1024-frame chunks.
var DefaultFormat = Format{
	SampleRate:  16000,
	Channels:    1,
	SampleWidth: 2,
	ChunkFrames: 1024,
}

// ChunkBytes is the size of one chunk read from the device.
func (f Format) ChunkBytes() int {
	return f.ChunkFrames * f.Channels * f.SampleWidth
}

// Duration reports how much audio n bytes of PCM hold.
func (f Format) Duration(n int) time.Duration {
	perSecond := f.SampleRate * f.Channels * f.SampleWidth
	if perSecond <= 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(perSecond))
}

// Device is an opened audio input.
//
// Read blocks until the next chunk is available. A nil error with an empty
// chunk means no data was ready; the caller simply reads again.
type Device interface {
	Read() ([]byte, error)
	Close() error
}

// Opener opens the input device for a new recording.
type Opener interface {
	Open(f Format) (Device, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(f Format) (Device, error)

// Open calls fn.
func (fn OpenerFunc) Open(f Format) (Device, error) { return fn(f) }

// DeviceError reports an open or read failure of the input device.
type DeviceError struct {
	Op  string // "open" or "read"
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s failed: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
