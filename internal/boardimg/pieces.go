package boardimg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// 말 디스크는 사이드별 SVG 한 장으로 그리고 글자는 위에 얹는다.
const discSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">
<circle cx="32" cy="32" r="25" fill="%s" stroke="%s" stroke-width="3"/>
<circle cx="32" cy="32" r="19" fill="none" stroke="%s" stroke-width="1.5" stroke-opacity="0.45"/>
</svg>`

type discKey struct {
	side domain.Side
	size int
}

var (
	discCache   = map[discKey]image.Image{}
	discCacheMu sync.RWMutex
)

func discSource(side domain.Side) []byte {
	if side == domain.White {
		return []byte(fmt.Sprintf(discSVG, "#f7f3ea", "#2b2b2b", "#2b2b2b"))
	}
	return []byte(fmt.Sprintf(discSVG, "#262a33", "#0d0f14", "#e0e0e0"))
}

func renderDisc(side domain.Side, size int) (image.Image, error) {
	key := discKey{side: side, size: size}

	discCacheMu.RLock()
	if img, ok := discCache[key]; ok {
		discCacheMu.RUnlock()
		return img, nil
	}
	discCacheMu.RUnlock()

	icon, err := oksvg.ReadIconStream(bytes.NewReader(discSource(side)))
	if err != nil {
		return nil, fmt.Errorf("parse disc svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	discCacheMu.Lock()
	discCache[key] = img
	discCacheMu.Unlock()

	return img, nil
}
