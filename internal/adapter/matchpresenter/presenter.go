package matchpresenter

import (
	"context"
	"strings"

	"github.com/park285/llm-chess-arena/internal/boardimg"
	"github.com/park285/llm-chess-arena/internal/match"
)

// Presenter delivers formatted text and board images without coupling to the command layer.
type Presenter struct {
	sendMessage func(message string) error
	sendImage   func(png []byte) error
	renderer    *boardimg.Renderer
}

func NewPresenter(sendMessage func(message string) error, sendImage func(png []byte) error, renderer *boardimg.Renderer) *Presenter {
	if renderer == nil && sendImage != nil {
		renderer = boardimg.NewRenderer()
	}
	return &Presenter{
		sendMessage: sendMessage,
		sendImage:   sendImage,
		renderer:    renderer,
	}
}

func (p *Presenter) Board(ctx context.Context, message string, snap match.Snapshot) error {
	if p == nil {
		return nil
	}

	if text := strings.TrimSpace(message); text != "" && p.sendMessage != nil {
		if err := p.sendMessage(message); err != nil {
			return err
		}
	}

	if p.sendImage == nil || snap.State.Board == "" {
		return nil
	}
	opts := boardimg.Options{}
	if b := snap.Binding; b != nil {
		opts.Caption = string(b.White) + " vs " + string(b.Black)
	}
	if n := len(snap.Moves); n > 0 {
		if hl, ok := boardimg.HighlightFor(snap.Moves[n-1].UCI); ok {
			opts.Highlight = hl
		}
	}
	img, err := p.renderer.RenderPNG(ctx, snap.State.Board, opts)
	if err != nil {
		return err
	}
	return p.sendImage(img)
}
