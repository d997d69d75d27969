package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	placeholderWidth  = 640
	placeholderHeight = 480
	jpegQuality       = 80
	textScale         = 2
	aimHalf           = 50
	crossHalf         = 10
)

var (
	standbyColor = color.RGBA{R: 100, G: 100, B: 100, A: 255}
	errorColor   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	overlayColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
)

// RenderStandby is published instead of camera frames while the robot is in standby.
func RenderStandby() *image.RGBA {
	return placeholder("SYSTEM STANDBY", image.Pt(160, 240), standbyColor)
}

func RenderCameraError() *image.RGBA {
	return placeholder("CAMERA ERROR", image.Pt(180, 240), errorColor)
}

// RenderOverlay copies src and draws the aiming box, the crosshair and the current label.
func RenderOverlay(src image.Image, label string) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Copy(dst, image.Point{}, src, b, xdraw.Src, nil)

	cx, cy := b.Dx()/2, b.Dy()/2
	strokeRect(dst, image.Rect(cx-aimHalf, cy-aimHalf, cx+aimHalf, cy+aimHalf), 2, overlayColor)
	fillRect(dst, image.Rect(cx-crossHalf, cy, cx+crossHalf+1, cy+1), overlayColor)
	fillRect(dst, image.Rect(cx, cy-crossHalf, cx+1, cy+crossHalf+1), overlayColor)

	if label != "" {
		drawText(dst, label, image.Pt(cx-aimHalf, cy-aimHalf-8), overlayColor)
	}
	return dst
}

func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func placeholder(text string, at image.Point, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	xdraw.Draw(img, img.Bounds(), image.Black, image.Point{}, xdraw.Src)
	drawText(img, text, at, c)
	return img
}

// drawText renders with the 7x13 bitmap face and scales it up; at is the baseline origin.
func drawText(dst *image.RGBA, text string, at image.Point, c color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Height

	glyphs := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	target := image.Rect(
		at.X,
		at.Y-face.Ascent*textScale,
		at.X+width*textScale,
		at.Y+(height-face.Ascent)*textScale,
	)
	xdraw.NearestNeighbor.Scale(dst, target, glyphs, glyphs.Bounds(), xdraw.Over, nil)
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	xdraw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, xdraw.Src)
}

func strokeRect(dst *image.RGBA, r image.Rectangle, thickness int, c color.Color) {
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), c)
	fillRect(dst, image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), c)
}
