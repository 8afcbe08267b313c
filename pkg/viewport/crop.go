// Package viewport は、ズーム率とアンカー位置から固定アスペクト枠内の
// 表示クロップ矩形を導出する純粋な座標計算と、ドラッグによる再配置の
// セッション管理を提供します。I/Oは一切行いません。
package viewport

import (
	"strconv"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	// MinZoom はズーム率の下限（等倍）です。
	MinZoom = 100
	// MaxZoom はズーム率の上限です。
	MaxZoom = 350
)

// Rect はソース画像に対するクロップ矩形です。各値はパーセント表現です。
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ComputeCropRect は (ズーム率, アンカー) の宣言的な組から実効クロップ矩形を
// 計算します。zoom == 100 ではアンカーに関係なく全画面が返ります。
// zoom >= 100 でのみ有効です。
func ComputeCropRect(zoom float64, anchor domain.Position) Rect {
	if zoom < MinZoom {
		zoom = MinZoom
	}
	size := 100 / (zoom / 100)
	return Rect{
		Left:   anchor.X * (1 - size/100),
		Top:    anchor.Y * (1 - size/100),
		Width:  size,
		Height: size,
	}
}

// ParseAnchor は "center 40%" 形式のアンカー文字列を座標に変換します。
// 各トークンはキーワード（left/center/right、top/center/bottom）または
// 明示的なパーセント値で、解釈できないトークンは 50 になります。
// 2つ目のトークンが無い場合は縦方向 center とみなします。
func ParseAnchor(s string) domain.Position {
	fields := strings.Fields(s)
	pos := domain.Position{X: 50, Y: 50}
	if len(fields) >= 1 {
		pos.X = parseAnchorToken(fields[0], "left", "right")
	}
	if len(fields) >= 2 {
		pos.Y = parseAnchorToken(fields[1], "top", "bottom")
	}
	return pos
}

// parseAnchorToken は1軸分のトークンを解釈します。lo/hi はその軸の
// 0%/100% に対応するキーワードです。
func parseAnchorToken(token, lo, hi string) float64 {
	switch strings.ToLower(token) {
	case lo:
		return 0
	case "center":
		return 50
	case hi:
		return 100
	}
	if v, err := strconv.ParseFloat(strings.TrimSuffix(token, "%"), 64); err == nil {
		return clampPercent(v)
	}
	return 50
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
