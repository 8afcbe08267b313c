package viewport

import (
	"errors"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// ErrNoPanHeadroom は、等倍以下のズームでドラッグを開始しようとした場合に
// BeginDrag が返すエラーです。
var ErrNoPanHeadroom = errors.New("viewport: zoom が 100% 以下のためパンできません")

// ErrImageAbsent は、画像が未生成のショットでドラッグを開始しようとした
// 場合に BeginDrag が返すエラーです。
var ErrImageAbsent = errors.New("viewport: 画像が存在しないためパンできません")

// degenerateZoomEpsilon を下回るズーム余剰ではドラッグ更新を抑制します。
// zoom=100 境界付近でのゼロ除算的な発散を避けるためのガードです。
const degenerateZoomEpsilon = 0.01

// Point はビューポート上のポインタ座標（ピクセル）です。
type Point struct {
	X float64
	Y float64
}

// Size はビューポートの寸法（ピクセル）です。
type Size struct {
	Width  float64
	Height float64
}

// DragSession は1回のドラッグ操作のスナップショットを保持します。
// 各 Update は前回の結果ではなく開始時点のスナップショットから計算されるため、
// 誤差の累積によるドリフトが発生しません。
type DragSession struct {
	startPointer Point
	startAnchor  domain.Position
	zoom         float64
}

// BeginDrag はドラッグ開始時点のスナップショットを取得してセッションを開始します。
// zoom <= 100（パンの余地なし）または画像が無い場合はセッションを開始できません。
func BeginDrag(pointer Point, anchor domain.Position, zoom float64, hasImage bool) (*DragSession, error) {
	if !hasImage {
		return nil, ErrImageAbsent
	}
	if zoom <= MinZoom {
		return nil, ErrNoPanHeadroom
	}
	return &DragSession{
		startPointer: pointer,
		startAnchor:  anchor,
		zoom:         zoom,
	}, nil
}

// Update は現在のポインタ位置から新しいアンカーを計算します。
// ポインタ変位をビューポート寸法に対する比率へ正規化し、(zoom/100 - 1) で
// 除算して画面空間の移動量をソース画像空間へ換算します（ズームが高いほど
// 少ないポインタ移動で同じ距離をパンできる逆比例の関係）。右ドラッグで
// クロップ窓は左へ動くため開始アンカーから減算し、両軸を [0,100] に収めます。
func (s *DragSession) Update(pointer Point, view Size) domain.Position {
	headroom := s.zoom/100 - 1
	if headroom <= degenerateZoomEpsilon {
		return s.startAnchor
	}
	if view.Width <= 0 || view.Height <= 0 {
		return s.startAnchor
	}

	dx := (pointer.X - s.startPointer.X) / view.Width
	dy := (pointer.Y - s.startPointer.Y) / view.Height

	return domain.Position{
		X: clampPercent(s.startAnchor.X - dx/headroom*100),
		Y: clampPercent(s.startAnchor.Y - dy/headroom*100),
	}
}

// Anchor は開始時点のアンカーを返します。
func (s *DragSession) Anchor() domain.Position {
	return s.startAnchor
}

// Tracker は Idle と Dragging の2状態だけを持つドラッグ状態機械です。
// End はポインタがビューポート外で離された場合も含め、どの経路からでも
// 安全に呼べる冪等な解放操作です。
type Tracker struct {
	session *DragSession
}

// Begin はドラッグを開始します。すでにドラッグ中の場合は何もしません。
func (t *Tracker) Begin(pointer Point, anchor domain.Position, zoom float64, hasImage bool) error {
	if t.session != nil {
		return nil
	}
	session, err := BeginDrag(pointer, anchor, zoom, hasImage)
	if err != nil {
		return err
	}
	t.session = session
	return nil
}

// Move はドラッグ中であれば新しいアンカーを返します。
// Idle 状態では現在位置を変えない no-op です。
func (t *Tracker) Move(pointer Point, view Size, current domain.Position) domain.Position {
	if t.session == nil {
		return current
	}
	return t.session.Update(pointer, view)
}

// End はドラッグセッションを解放し、Idle 状態へ戻します。
func (t *Tracker) End() {
	t.session = nil
}

// Dragging はドラッグ中かどうかを返します。
func (t *Tracker) Dragging() bool {
	return t.session != nil
}
