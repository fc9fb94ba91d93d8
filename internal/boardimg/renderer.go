// Package boardimg renders a board placement to PNG for the console.
package boardimg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	"github.com/park285/llm-chess-arena/internal/domain"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Highlight marks the squares of the last ply, as 0..63 indexes (a1 = 0).
type Highlight struct {
	From int
	To   int
}

type Options struct {
	Highlight *Highlight
	Caption   string
}

type Renderer struct {
	squareSize int
}

type Option func(*Renderer)

// WithSquareSize overrides the square edge in pixels.
func WithSquareSize(px int) Option {
	return func(r *Renderer) {
		if px >= 16 {
			r.squareSize = px
		}
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{squareSize: 56}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const (
	sideMargin   = 24
	topMargin    = 36
	bottomMargin = 24
)

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	backgroundColor     = color.RGBA{28, 31, 46, 255}
	moveHighlightFill   = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
	captionTextColor    = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	whiteLetterColor    = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
	blackLetterColor    = color.NRGBA{R: 240, G: 240, B: 240, A: 255}
)

// RenderPNG draws the placement field of board (a full FEN is accepted).
func (r *Renderer) RenderPNG(ctx context.Context, board string, opts Options) ([]byte, error) {
	placement, err := domain.ParsePlacement(board)
	if err != nil {
		return nil, err
	}

	sq := r.squareSize
	boardSize := sq * 8
	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)
	origin := image.Point{X: sideMargin, Y: topMargin}

	drawSquares(img, sq, origin)
	if h := opts.Highlight; h != nil {
		drawSquareOverlay(img, h.From, sq, origin, moveHighlightFill)
		drawSquareOverlay(img, h.To, sq, origin, moveHighlightFill)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := drawPieces(img, placement, sq, origin); err != nil {
		return nil, err
	}
	drawCoordinates(img, sq, origin)
	drawCaption(img, opts.Caption)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func squareRect(index, squareSize int, origin image.Point) image.Rectangle {
	col := index % 8
	row := 7 - index/8
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point) {
	for i := 0; i < 64; i++ {
		clr := lightSquare
		if (i%8+i/8)%2 == 0 {
			clr = darkSquare
		}
		imagedraw.Draw(dst, squareRect(i, squareSize, origin), image.NewUniform(clr), image.Point{}, imagedraw.Src)
	}
}

func drawSquareOverlay(img *image.RGBA, index, squareSize int, origin image.Point, clr color.Color) {
	if index < 0 || index > 63 {
		return
	}
	imagedraw.Draw(img, squareRect(index, squareSize, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawPieces(dst *image.RGBA, p domain.Placement, squareSize int, origin image.Point) error {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face}
	ascent := face.Metrics().Ascent.Ceil()

	for i, c := range p {
		if c == 0 {
			continue
		}
		side := domain.PieceSide(c)
		disc, err := renderDisc(side, squareSize)
		if err != nil {
			return err
		}
		rect := squareRect(i, squareSize, origin)
		imagedraw.Draw(dst, rect, disc, image.Point{}, imagedraw.Over)

		drawer.Src = image.NewUniform(whiteLetterColor)
		if side == domain.Black {
			drawer.Src = image.NewUniform(blackLetterColor)
		}
		center := rect.Min.Add(image.Pt(squareSize/2, squareSize/2))
		drawCenteredText(drawer, strings.ToUpper(string(c)), center.X, center.Y+ascent/2-1)
	}
	return nil
}

func drawCoordinates(dst *image.RGBA, squareSize int, origin image.Point) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordinateTextColor)}
	ascent := face.Metrics().Ascent.Ceil()
	boardEnd := origin.Y + 8*squareSize

	for i := 0; i < 8; i++ {
		rankCenter := origin.Y + (7-i)*squareSize + squareSize/2
		drawCenteredText(drawer, string(rune('1'+i)), origin.X-sideMargin/2, rankCenter+ascent/2)

		fileCenter := origin.X + i*squareSize + squareSize/2
		drawCenteredText(drawer, string(rune('a'+i)), fileCenter, boardEnd+ascent+4)
	}
}

func drawCaption(dst *image.RGBA, caption string) {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return
	}
	drawer := &font.Drawer{Dst: dst, Face: basicfont.Face7x13, Src: image.NewUniform(captionTextColor)}
	drawCenteredText(drawer, caption, dst.Bounds().Dx()/2, topMargin/2+5)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

// HighlightFor turns a UCI move into square indexes. ok is false when the
// string does not start with two squares.
func HighlightFor(uci string) (*Highlight, bool) {
	if len(uci) < 4 {
		return nil, false
	}
	from, ok1 := squareIndex(uci[0:2])
	to, ok2 := squareIndex(uci[2:4])
	if !ok1 || !ok2 {
		return nil, false
	}
	return &Highlight{From: from, To: to}, true
}

func squareIndex(s string) (int, bool) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, false
	}
	return int(s[1]-'1')*8 + int(s[0]-'a'), true
}
