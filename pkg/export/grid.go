package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/viewport"
)

const (
	// GridColumns はグリッドの列数です。27ショットで 3x9 のグリッドになります。
	GridColumns = 3
	// CellWidth/CellHeight は1セルの描画サイズ（16:9）です。
	CellWidth  = 480
	CellHeight = 270
	// cellGap はセル間の余白です。
	cellGap = 8
)

var (
	gridBackground  = color.NRGBA{R: 24, G: 24, B: 28, A: 255}
	cellPlaceholder = color.NRGBA{R: 52, G: 52, B: 60, A: 255}
)

// ComposeGrid は全ショットを1枚の絵コンテグリッドに合成します。
// 各ショットにはユーザーが調整したズームとアンカーに基づくクロップが
// 適用され、未レンダリングのショットはプレースホルダーセルになります。
func ComposeGrid(shots domain.Sequence) (image.Image, error) {
	rows := (len(shots) + GridColumns - 1) / GridColumns
	canvasW := GridColumns*CellWidth + (GridColumns+1)*cellGap
	canvasH := rows*CellHeight + (rows+1)*cellGap
	canvas := imaging.New(canvasW, canvasH, gridBackground)

	for i := range shots {
		col := i % GridColumns
		row := i / GridColumns
		x := cellGap + col*(CellWidth+cellGap)
		y := cellGap + row*(CellHeight+cellGap)

		cell, err := renderCell(&shots[i])
		if err != nil {
			return nil, fmt.Errorf("ショット %d のセル描画に失敗しました: %w", i+1, err)
		}
		canvas = imaging.Paste(canvas, cell, image.Pt(x, y))
	}

	return canvas, nil
}

// renderCell は1ショット分のセル画像を生成します。
func renderCell(shot *domain.ShotRecord) (image.Image, error) {
	if !shot.Rendered() {
		return imaging.New(CellWidth, CellHeight, cellPlaceholder), nil
	}

	src, err := imaging.Decode(bytes.NewReader(shot.Image.Data))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}

	cropped := applyCrop(src, shot.Zoom, shot.Position)
	return imaging.Fill(cropped, CellWidth, CellHeight, imaging.Center, imaging.Lanczos), nil
}

// applyCrop はパーセント表現のクロップ矩形をピクセル座標へ変換して適用します。
func applyCrop(src image.Image, zoom float64, pos domain.Position) image.Image {
	rect := viewport.ComputeCropRect(zoom, pos)
	bounds := src.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	pixelRect := image.Rect(
		bounds.Min.X+int(rect.Left/100*w),
		bounds.Min.Y+int(rect.Top/100*h),
		bounds.Min.X+int((rect.Left+rect.Width)/100*w),
		bounds.Min.Y+int((rect.Top+rect.Height)/100*h),
	)
	return imaging.Crop(src, pixelRect)
}

// EncodeGridPNG は ComposeGrid の結果を PNG バイト列として返します。
func EncodeGridPNG(shots domain.Sequence) ([]byte, error) {
	grid, err := ComposeGrid(shots)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, grid, imaging.PNG); err != nil {
		return nil, fmt.Errorf("グリッドPNGのエンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}
