package tilemap

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// SyntheticSource renders labelled checkerboard tiles. It needs no data on
// disk and is used for demos and for checking tile switches visually.
type SyntheticSource struct {
	pyramid Pyramid
	labels  bool
}

// NewSyntheticSource returns a source producing tiles for pyramid. When
// labels is set every tile carries its "level/column/row" id.
func NewSyntheticSource(pyramid Pyramid, labels bool) *SyntheticSource {
	return &SyntheticSource{pyramid: pyramid, labels: labels}
}

var syntheticPalette = []color.RGBA{
	{R: 40, G: 90, B: 160, A: 255},
	{R: 60, G: 130, B: 70, A: 255},
	{R: 170, G: 140, B: 80, A: 255},
	{R: 120, G: 60, B: 110, A: 255},
}

func (s *SyntheticSource) Fetch(ctx context.Context, id TileID) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.pyramid.Contains(id) {
		return nil, ErrTileNotFound
	}
	w, h := s.pyramid.TileWidth, s.pyramid.TileHeight
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	bg := syntheticPalette[(id.Column+id.Row+id.Level)%len(syntheticPalette)]
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	// Lighter band every eighth of the tile so scaling and seams are visible.
	band := color.RGBA{R: bg.R / 2, G: bg.G / 2, B: bg.B / 2, A: 255}
	for i := 1; i < 8; i++ {
		x := i * w / 8
		draw.Draw(img, image.Rect(x, 0, x+1, h), &image.Uniform{C: band}, image.Point{}, draw.Src)
		y := i * h / 8
		draw.Draw(img, image.Rect(0, y, w, y+1), &image.Uniform{C: band}, image.Point{}, draw.Src)
	}

	border := color.RGBA{R: 230, G: 230, B: 230, A: 255}
	for _, r := range []image.Rectangle{
		image.Rect(0, 0, w, 1),
		image.Rect(0, h-1, w, h),
		image.Rect(0, 0, 1, h),
		image.Rect(w-1, 0, w, h),
	} {
		draw.Draw(img, r, &image.Uniform{C: border}, image.Point{}, draw.Src)
	}

	if s.labels {
		drawLabel(img, id.String())
	}
	return img, nil
}

func drawLabel(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	b := img.Bounds()
	textWidth := d.MeasureString(text).Round()
	textHeight := face.Metrics().Height.Round()
	if textWidth+8 > b.Dx() || textHeight+8 > b.Dy() {
		return
	}

	cx, cy := b.Dx()/2, b.Dy()/2
	bgRect := image.Rect(cx-textWidth/2-4, cy-textHeight/2-4, cx+textWidth/2+4, cy+textHeight/2+4)
	draw.Draw(img, bgRect, &image.Uniform{C: color.RGBA{R: 255, G: 255, B: 255, A: 220}}, image.Point{}, draw.Over)

	d.Dot = fixed.Point26_6{
		X: fixed.I(cx - textWidth/2),
		Y: fixed.I(cy + textHeight/2 - 2),
	}
	d.DrawString(text)
}
