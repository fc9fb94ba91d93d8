package boardimg

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
)

const startBoard = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func TestRenderPNGDimensions(t *testing.T) {
	r := NewRenderer(WithSquareSize(40))
	data, err := r.RenderPNG(context.Background(), startBoard+" w KQkq - 0 1", Options{Caption: "OPENAI vs CLAUDE"})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	b := decode(t, data).Bounds()
	if b.Dx() != 40*8+sideMargin*2 || b.Dy() != 40*8+topMargin+bottomMargin {
		t.Fatalf("unexpected size %v", b)
	}
}

func TestRenderPNGHighlightsLastMove(t *testing.T) {
	r := NewRenderer(WithSquareSize(40))
	board := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR"

	hl, ok := HighlightFor("e2e4")
	if !ok {
		t.Fatalf("HighlightFor rejected e2e4")
	}
	plain, err := r.RenderPNG(context.Background(), board, Options{})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	marked, err := r.RenderPNG(context.Background(), board, Options{Highlight: hl})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}

	// e2 모서리 픽셀은 말 디스크 밖이다.
	at := squareRect(hl.From, 40, image.Pt(sideMargin, topMargin)).Min.Add(image.Pt(1, 1))
	before := color.RGBAModel.Convert(decode(t, plain).At(at.X, at.Y)).(color.RGBA)
	after := color.RGBAModel.Convert(decode(t, marked).At(at.X, at.Y)).(color.RGBA)
	if before != lightSquare {
		t.Fatalf("e2 should be a light square, got %v", before)
	}
	if after == before {
		t.Fatalf("highlight not drawn on e2")
	}
}

func TestRenderPNGRejectsBadBoard(t *testing.T) {
	if _, err := NewRenderer().RenderPNG(context.Background(), "not a board", Options{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRenderPNGHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRenderer().RenderPNG(ctx, startBoard, Options{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestHighlightFor(t *testing.T) {
	h, ok := HighlightFor("a1h8")
	if !ok || h.From != 0 || h.To != 63 {
		t.Fatalf("got %+v ok=%v", h, ok)
	}
	h, ok = HighlightFor("e7e8q")
	if !ok || h.From != 52 || h.To != 60 {
		t.Fatalf("promotion: got %+v ok=%v", h, ok)
	}
	for _, bad := range []string{"", "e2", "z9e4", "e2e9"} {
		if _, ok := HighlightFor(bad); ok {
			t.Fatalf("HighlightFor(%q) should fail", bad)
		}
	}
}
