package resolve

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

// placeholder writes a dark solid frame at the render resolution. It needs no
// network and no external tools, which is what makes resolution total.
func (r *Resolver) placeholder(session string, index int) (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, r.render.Width, r.render.Height))
	fill := color.RGBA{R: 15, G: 15, B: 20, A: 255}
	for y := 0; y < r.render.Height; y++ {
		for x := 0; x < r.render.Width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}

	path := r.st.ClipPath(session, index, "png")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	err = png.Encode(f, img)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
