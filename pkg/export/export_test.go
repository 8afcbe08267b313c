package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// encodeTestImage は単色のPNG画像を生成します。
func encodeTestImage(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("テスト画像のエンコードに失敗しました: %v", err)
	}
	return buf.Bytes()
}

func TestWriteZip(t *testing.T) {
	shots := domain.NewSequence()
	red := encodeTestImage(t, 32, 32, color.NRGBA{R: 255, A: 255})
	shots[0].Image = &domain.ShotImage{Data: red, MimeType: "image/png"}
	shots[0].Action = "冒頭のカット"
	shots[5].Image = &domain.ShotImage{Data: red, MimeType: "image/jpeg"}

	var buf bytes.Buffer
	if err := WriteZip(&buf, "テスト絵コンテ", shots); err != nil {
		t.Fatalf("ZIPの書き出しに失敗しました: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("ZIPの読み込みに失敗しました: %v", err)
	}

	names := make(map[string]*zip.File)
	for _, f := range zr.File {
		names[f.Name] = f
	}

	t.Run("レンダリング済みショットだけが画像エントリになること", func(t *testing.T) {
		if _, ok := names["shot_1.png"]; !ok {
			t.Error("shot_1.png がありません")
		}
		if _, ok := names["shot_6.jpg"]; !ok {
			t.Error("shot_6.jpg がありません")
		}
		// 画像2枚 + マニフェスト1件
		if len(zr.File) != 3 {
			t.Errorf("エントリ数が不正です: %d", len(zr.File))
		}
	})

	t.Run("マニフェストに全ショットが含まれること", func(t *testing.T) {
		mf, ok := names["storyboard.json"]
		if !ok {
			t.Fatal("storyboard.json がありません")
		}
		rc, err := mf.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatal(err)
		}
		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			t.Fatalf("マニフェストの解析に失敗しました: %v", err)
		}
		if manifest.Title != "テスト絵コンテ" {
			t.Errorf("タイトルが不正です: %s", manifest.Title)
		}
		if len(manifest.Shots) != domain.SequenceLength {
			t.Errorf("ショット数が不正です: %d", len(manifest.Shots))
		}
		if manifest.Shots[0].File != "shot_1.png" {
			t.Errorf("ファイル参照が不正です: %s", manifest.Shots[0].File)
		}
		if manifest.Shots[1].File != "" {
			t.Errorf("未レンダリングショットにファイル参照があります: %s", manifest.Shots[1].File)
		}
		if manifest.Shots[0].Action != "冒頭のカット" {
			t.Errorf("Action が保存されていません: %s", manifest.Shots[0].Action)
		}
	})
}

func TestComposeGrid(t *testing.T) {
	shots := domain.NewSequence()
	blue := encodeTestImage(t, 64, 36, color.NRGBA{B: 255, A: 255})
	shots[0].Image = &domain.ShotImage{Data: blue, MimeType: "image/png"}
	shots[0].Zoom = 100

	grid, err := ComposeGrid(shots)
	if err != nil {
		t.Fatalf("グリッド合成に失敗しました: %v", err)
	}

	t.Run("キャンバス寸法が3列9行分であること", func(t *testing.T) {
		wantW := GridColumns*CellWidth + (GridColumns+1)*cellGap
		wantH := 9*CellHeight + 10*cellGap
		bounds := grid.Bounds()
		if bounds.Dx() != wantW || bounds.Dy() != wantH {
			t.Errorf("寸法 %dx%d, 期待値 %dx%d", bounds.Dx(), bounds.Dy(), wantW, wantH)
		}
	})

	t.Run("レンダリング済みセルに元画像の色が現れること", func(t *testing.T) {
		// セル(0,0)の中央
		r, g, b, _ := grid.At(cellGap+CellWidth/2, cellGap+CellHeight/2).RGBA()
		if b <= r || b <= g {
			t.Errorf("青が支配的ではありません: r=%d g=%d b=%d", r, g, b)
		}
	})

	t.Run("未レンダリングセルはプレースホルダー色なこと", func(t *testing.T) {
		// セル(1,0)の中央
		x := 2*cellGap + CellWidth + CellWidth/2
		y := cellGap + CellHeight/2
		r, g, b, _ := grid.At(x, y).RGBA()
		want := cellPlaceholder
		if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
			t.Errorf("プレースホルダー色ではありません: r=%d g=%d b=%d", r>>8, g>>8, b>>8)
		}
	})
}

func TestEncodeGridPNG(t *testing.T) {
	data, err := EncodeGridPNG(domain.NewSequence())
	if err != nil {
		t.Fatalf("エンコードに失敗しました: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("生成されたPNGがデコードできません: %v", err)
	}
	if img.Bounds().Dx() == 0 {
		t.Error("空の画像が生成されました")
	}
}

func TestApplyCrop(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 100))

	t.Run("zoom=100では全体が残ること", func(t *testing.T) {
		got := applyCrop(src, 100, domain.Position{X: 50, Y: 50})
		if got.Bounds().Dx() != 100 || got.Bounds().Dy() != 100 {
			t.Errorf("寸法が変わりました: %v", got.Bounds())
		}
	})

	t.Run("zoom=200では半分の矩形になること", func(t *testing.T) {
		got := applyCrop(src, 200, domain.Position{X: 50, Y: 50})
		if got.Bounds().Dx() != 50 || got.Bounds().Dy() != 50 {
			t.Errorf("クロップ寸法が不正です: %v", got.Bounds())
		}
	})
}
