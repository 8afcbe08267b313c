// Package export は、絵コンテの読み取り専用ビュー（ショット列）から
// 成果物を生成します。個別画像のZIPアーカイブと、クロップ適用済みの
// 1枚絵グリッドの2形式をサポートします。
package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shouni/go-utils/urlpath"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// Manifest は ZIP に同梱するショット構成のメタデータです。
type Manifest struct {
	Title string         `json:"title"`
	Shots []ManifestShot `json:"shots"`
}

// ManifestShot は1ショット分の構成情報と、対応する画像ファイル名です。
type ManifestShot struct {
	Index    int             `json:"index"`
	ShotType domain.ShotType `json:"shot_type"`
	Action   string          `json:"action"`
	Zoom     float64         `json:"zoom"`
	Position domain.Position `json:"position"`
	File     string          `json:"file,omitempty"`
}

// WriteZip はレンダリング済みショットの画像一式とマニフェストを ZIP 形式で
// w へ書き出します。画像が無いショットはマニフェストにのみ現れます。
func WriteZip(w io.Writer, title string, shots domain.Sequence) error {
	zw := zip.NewWriter(w)

	manifest := Manifest{Title: title}

	for i := range shots {
		shot := &shots[i]
		entry := ManifestShot{
			Index:    i,
			ShotType: shot.Type,
			Action:   shot.Action,
			Zoom:     shot.Zoom,
			Position: shot.Position,
		}

		if shot.Rendered() {
			name, err := urlpath.GenerateIndexedPath("shot"+extensionFor(shot.Image.MimeType), i+1)
			if err != nil {
				return fmt.Errorf("画像ファイル名の生成に失敗しました: %w", err)
			}
			fw, err := zw.Create(name)
			if err != nil {
				return fmt.Errorf("ZIPエントリの作成に失敗しました: %w", err)
			}
			if _, err := fw.Write(shot.Image.Data); err != nil {
				return fmt.Errorf("画像 %s の書き込みに失敗しました: %w", name, err)
			}
			entry.File = name
		}

		manifest.Shots = append(manifest.Shots, entry)
	}

	mw, err := zw.Create("storyboard.json")
	if err != nil {
		return fmt.Errorf("マニフェストエントリの作成に失敗しました: %w", err)
	}
	enc := json.NewEncoder(mw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("マニフェストの書き込みに失敗しました: %w", err)
	}

	return zw.Close()
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
