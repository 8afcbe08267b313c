package viewport

import (
	"errors"
	"testing"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

func TestBeginDrag(t *testing.T) {
	center := domain.Position{X: 50, Y: 50}

	t.Run("zoom=100ではパンの余地が無く開始できないこと", func(t *testing.T) {
		_, err := BeginDrag(Point{X: 10, Y: 10}, center, 100, true)
		if !errors.Is(err, ErrNoPanHeadroom) {
			t.Errorf("ErrNoPanHeadroom を期待しましたが %v でした", err)
		}
	})

	t.Run("画像が無い場合は開始できないこと", func(t *testing.T) {
		_, err := BeginDrag(Point{X: 10, Y: 10}, center, 200, false)
		if !errors.Is(err, ErrImageAbsent) {
			t.Errorf("ErrImageAbsent を期待しましたが %v でした", err)
		}
	})

	t.Run("zoom>100かつ画像ありなら開始できること", func(t *testing.T) {
		session, err := BeginDrag(Point{X: 10, Y: 10}, center, 200, true)
		if err != nil {
			t.Fatalf("開始に失敗しました: %v", err)
		}
		if session.Anchor() != center {
			t.Errorf("開始アンカーが保存されていません: %+v", session.Anchor())
		}
	})
}

func TestDragSession_Update(t *testing.T) {
	view := Size{Width: 400, Height: 300}
	center := domain.Position{X: 50, Y: 50}

	t.Run("右ドラッグでアンカーが減少すること", func(t *testing.T) {
		session, err := BeginDrag(Point{X: 100, Y: 100}, center, 200, true)
		if err != nil {
			t.Fatal(err)
		}

		// 右へ 100px = ビューポート幅の 1/4。zoom=200 では headroom=1 なので
		// アンカーは 25% 減少するはずです。
		got := session.Update(Point{X: 200, Y: 100}, view)
		if !almostEqual(got.X, 25) {
			t.Errorf("期待 X=25, 実際 X=%v", got.X)
		}
		if !almostEqual(got.Y, 50) {
			t.Errorf("Y軸が動いてはいけません: Y=%v", got.Y)
		}
	})

	t.Run("高ズームほど同じ移動量でのパンが小さくなること", func(t *testing.T) {
		session200, _ := BeginDrag(Point{}, center, 200, true)
		session300, _ := BeginDrag(Point{}, center, 300, true)

		moved := Point{X: 100, Y: 0}
		delta200 := 50 - session200.Update(moved, view).X
		delta300 := 50 - session300.Update(moved, view).X
		if delta300 >= delta200 {
			t.Errorf("zoom=300 の変位 (%v) が zoom=200 の変位 (%v) 以上です", delta300, delta200)
		}
	})

	t.Run("アンカーが[0,100]にクランプされること", func(t *testing.T) {
		session, _ := BeginDrag(Point{}, center, 150, true)
		got := session.Update(Point{X: 4000, Y: -4000}, view)
		if got.X != 0 {
			t.Errorf("期待 X=0, 実際 X=%v", got.X)
		}
		if got.Y != 100 {
			t.Errorf("期待 Y=100, 実際 Y=%v", got.Y)
		}
	})

	t.Run("各Updateが開始スナップショットから計算されドリフトしないこと", func(t *testing.T) {
		session, _ := BeginDrag(Point{}, center, 200, true)
		for i := 0; i < 100; i++ {
			session.Update(Point{X: 50, Y: 50}, view)
		}
		final := session.Update(Point{X: 50, Y: 50}, view)
		once, _ := BeginDrag(Point{}, center, 200, true)
		want := once.Update(Point{X: 50, Y: 50}, view)
		if final != want {
			t.Errorf("繰り返し後の結果 %+v が単発の結果 %+v と一致しません", final, want)
		}
	})

	t.Run("境界付近のズームでは更新が抑制されること", func(t *testing.T) {
		session := &DragSession{startAnchor: center, zoom: 100.5}
		got := session.Update(Point{X: 9999, Y: 9999}, view)
		if got != center {
			t.Errorf("更新が抑制されていません: %+v", got)
		}
	})
}

func TestTracker(t *testing.T) {
	view := Size{Width: 400, Height: 300}
	center := domain.Position{X: 50, Y: 50}

	t.Run("Idle状態のMoveは現在位置を変えないこと", func(t *testing.T) {
		var tracker Tracker
		got := tracker.Move(Point{X: 123, Y: 456}, view, center)
		if got != center {
			t.Errorf("Idle 状態で位置が変わりました: %+v", got)
		}
	})

	t.Run("Begin-Move-Endのライフサイクルが機能すること", func(t *testing.T) {
		var tracker Tracker
		if err := tracker.Begin(Point{}, center, 200, true); err != nil {
			t.Fatal(err)
		}
		if !tracker.Dragging() {
			t.Fatal("Dragging 状態になっていません")
		}

		moved := tracker.Move(Point{X: 100, Y: 0}, view, center)
		if moved.X >= center.X {
			t.Errorf("右ドラッグでアンカーが減少していません: %+v", moved)
		}

		tracker.End()
		if tracker.Dragging() {
			t.Error("End 後も Dragging 状態のままです")
		}
		// End は冪等であること
		tracker.End()
	})

	t.Run("開始条件を満たさないBeginはIdleのままであること", func(t *testing.T) {
		var tracker Tracker
		if err := tracker.Begin(Point{}, center, 100, true); err == nil {
			t.Fatal("エラーを期待しましたが nil でした")
		}
		if tracker.Dragging() {
			t.Error("失敗した Begin で Dragging 状態になっています")
		}
	})
}
