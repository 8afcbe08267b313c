package domain

import "strings"

// ShotType は撮影技法上のフレーミング分類コードです。
type ShotType string

// 利用可能な13種類のショットタイプです。
const (
	ShotExtremeLongShot ShotType = "extreme-long-shot"
	ShotLongShot        ShotType = "long-shot"
	ShotMediumShot      ShotType = "medium-shot"
	ShotMediumCloseUp   ShotType = "medium-close-up"
	ShotCloseUp         ShotType = "close-up"
	ShotExtremeCloseUp  ShotType = "extreme-close-up"
	ShotPointOfView     ShotType = "point-of-view"
	ShotOverTheShoulder ShotType = "over-the-shoulder"
	ShotLowAngle        ShotType = "low-angle"
	ShotHighAngle       ShotType = "high-angle"
	ShotDutchAngle      ShotType = "dutch-angle"
	ShotOverhead        ShotType = "overhead"
	ShotBirdsEye        ShotType = "birds-eye"
)

// DefaultShotType は、プランナー出力にショットタイプが欠けていた場合の
// フォールバック値です。
const DefaultShotType = ShotMediumShot

// ShotTypePreset はショットタイプごとのデフォルトのズーム率と
// アンカー位置（"center 40%" 形式の文字列）の組です。
type ShotTypePreset struct {
	Zoom   float64
	Anchor string
}

// shotTypePresets は起動時に一度だけ定義され、以後変更されない固定テーブルです。
var shotTypePresets = map[ShotType]ShotTypePreset{
	ShotExtremeLongShot: {Zoom: 100, Anchor: "center center"},
	ShotLongShot:        {Zoom: 105, Anchor: "center center"},
	ShotMediumShot:      {Zoom: 130, Anchor: "center 40%"},
	ShotMediumCloseUp:   {Zoom: 160, Anchor: "center 35%"},
	ShotCloseUp:         {Zoom: 220, Anchor: "center 30%"},
	ShotExtremeCloseUp:  {Zoom: 300, Anchor: "center 30%"},
	ShotPointOfView:     {Zoom: 120, Anchor: "center center"},
	ShotOverTheShoulder: {Zoom: 150, Anchor: "35% 40%"},
	ShotLowAngle:        {Zoom: 140, Anchor: "center 25%"},
	ShotHighAngle:       {Zoom: 140, Anchor: "center 70%"},
	ShotDutchAngle:      {Zoom: 135, Anchor: "center 45%"},
	ShotOverhead:        {Zoom: 110, Anchor: "center center"},
	ShotBirdsEye:        {Zoom: 100, Anchor: "center center"},
}

// AllShotTypes はプロンプト等で列挙する際の標準順です。
var AllShotTypes = []ShotType{
	ShotExtremeLongShot,
	ShotLongShot,
	ShotMediumShot,
	ShotMediumCloseUp,
	ShotCloseUp,
	ShotExtremeCloseUp,
	ShotPointOfView,
	ShotOverTheShoulder,
	ShotLowAngle,
	ShotHighAngle,
	ShotDutchAngle,
	ShotOverhead,
	ShotBirdsEye,
}

// Valid は定義済みのショットタイプかどうかを返します。
func (t ShotType) Valid() bool {
	_, ok := shotTypePresets[t]
	return ok
}

// Preset はこのショットタイプに対応するプリセットを返します。
// 未定義のタイプの場合は DefaultShotType のプリセットを返します。
func (t ShotType) Preset() ShotTypePreset {
	if preset, ok := shotTypePresets[t]; ok {
		return preset
	}
	return shotTypePresets[DefaultShotType]
}

// String は fmt.Stringer を実装します。
func (t ShotType) String() string {
	return string(t)
}

// ParseShotType は AI 出力などの表記揺れ（大文字、空白、アンダースコア）を
// 吸収してショットタイプに変換します。解釈できない場合は DefaultShotType と
// false を返します。
func ParseShotType(s string) (ShotType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", "-", " ", "-", "'", "").Replace(normalized)
	t := ShotType(normalized)
	if t.Valid() {
		return t, true
	}
	return DefaultShotType, false
}
