package viz

import (
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"
)

// Recorder turns canvas frames into an animated GIF.
type Recorder struct {
	frames []*image.Paletted
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Len() int { return len(r.frames) }

// Capture rasterizes the lit braille dots of c.
func (r *Recorder) Capture(c *Canvas) {
	const dot = 4
	pw, ph := c.PixelSize()
	img := image.NewPaletted(image.Rect(0, 0, pw*dot, ph*dot), color.Palette{color.Black, color.White})
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < dot; py++ {
				for px := 0; px < dot; px++ {
					img.SetColorIndex(x*dot+px, y*dot+py, 1)
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

func (r *Recorder) Encode(w io.Writer) error {
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	return gif.EncodeAll(w, &anim)
}

func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.Encode(f)
}
