package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// AssetKind は参照画像の分類タグです。
type AssetKind string

const (
	AssetEnvironment AssetKind = "environment"
	AssetCharacter   AssetKind = "character"
	AssetProp        AssetKind = "prop"
	AssetStyle       AssetKind = "style"
	AssetOther       AssetKind = "other"
)

// ParseAssetKind は文字列を分類タグに変換します。未知の値は AssetOther 扱いです。
func ParseAssetKind(s string) AssetKind {
	switch AssetKind(s) {
	case AssetEnvironment, AssetCharacter, AssetProp, AssetStyle:
		return AssetKind(s)
	default:
		return AssetOther
	}
}

// VisualAsset はユーザーが持ち込んだ参照画像1枚を表します。
// リスト内の並び順は挿入順であり、プロンプト内で位置参照されるため意味を持ちます。
type VisualAsset struct {
	ID       string    `json:"id"`
	Data     []byte    `json:"-"`
	MimeType string    `json:"mime_type"`
	Kind     AssetKind `json:"kind"`
	Label    string    `json:"label"`

	// Source は元ファイルのパスまたは URL です。ブラウザ経由で持ち込まれた
	// メモリ上のアセットでは空になります。
	Source string `json:"-"`
}

// NewVisualAsset は一意なIDを採番した参照画像を生成します。
func NewVisualAsset(data []byte, mimeType string, kind AssetKind, label string) VisualAsset {
	return VisualAsset{
		ID:       uuid.NewString(),
		Data:     data,
		MimeType: mimeType,
		Kind:     kind,
		Label:    label,
	}
}

// String は参照画像の情報を文字列で返します。
func (a VisualAsset) String() string {
	return fmt.Sprintf("%s [%s]", a.Label, a.Kind)
}

// AssetList は挿入順を保持する参照画像のリストです。
type AssetList []VisualAsset

// IndexOf は指定IDの位置を返します。見つからない場合は -1 です。
func (l AssetList) IndexOf(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}
