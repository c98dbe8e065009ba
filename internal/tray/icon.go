package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
)

const iconSize = 64

var (
	idleColor      = color.RGBA{0x21, 0x96, 0xF3, 0xFF} // blue
	recordingColor = color.RGBA{0x4C, 0xAF, 0x50, 0xFF} // green
)

// circlePNG renders a filled circle of c on a transparent square.
func circlePNG(c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	r := iconSize/2 - 2
	cx, cy := iconSize/2, iconSize/2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, c)
			}
		}
	}
	var buf bytes.Buffer
	// encoding an in-memory RGBA image does not fail
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// wrapICO embeds a PNG image in a single-entry ICO container.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	w := func(v interface{}) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	w(uint16(0)) // reserved
	w(uint16(1)) // type: icon
	w(uint16(1)) // image count

	dim := uint8(size)
	if size >= 256 {
		dim = 0
	}
	w(dim)                  // width
	w(dim)                  // height
	w(uint8(0))             // palette
	w(uint8(0))             // reserved
	w(uint16(1))            // color planes
	w(uint16(32))           // bits per pixel
	w(uint32(len(pngData))) // image size
	w(uint32(6 + 16))       // image offset
	buf.Write(pngData)
	return buf.Bytes()
}

// Icons holds the encoded tray images for both states.
type Icons struct {
	Idle      []byte
	Recording []byte
}

// NewIcons renders the icons in the format the platform tray expects.
func NewIcons() Icons {
	return Icons{
		Idle:      platformIcon(circlePNG(idleColor)),
		Recording: platformIcon(circlePNG(recordingColor)),
	}
}
