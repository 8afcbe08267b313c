package domain

// SequenceLength は1つの絵コンテが保持するショット数です。
// 3カット×9シーンの固定グリッドを前提としています。
const SequenceLength = 27

// Position はソース画像上のアンカー座標（パーセント）を保持します。
// X, Y ともに [0, 100] のドメインを持ちます。
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ShotImage は生成されたショット画像データとそのメタデータです。
type ShotImage struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
}

// ShotRecord は絵コンテ内の1ショットの構成情報を保持します。
// Image は未レンダリングの場合 nil になります。
type ShotRecord struct {
	Type     ShotType   `json:"shot_type"`
	Action   string     `json:"action"`
	Zoom     float64    `json:"zoom"`
	Position Position   `json:"position"`
	Image    *ShotImage `json:"-"`
}

// Rendered は画像が生成済みかどうかを返します。
func (s *ShotRecord) Rendered() bool {
	return s.Image != nil && len(s.Image.Data) > 0
}

// Sequence は固定長のショット列です。インデックス順が上映順です。
type Sequence []ShotRecord

// NewSequence はデフォルトショットタイプで初期化した SequenceLength 長の
// ショット列を生成します。ズームとアンカーのプリセット適用は、アンカー文字列の
// 解釈を担う呼び出し側（Boardなど）の責務です。
func NewSequence() Sequence {
	seq := make(Sequence, SequenceLength)
	for i := range seq {
		seq[i] = ShotRecord{Type: DefaultShotType}
	}
	return seq
}

// RenderedCount は生成済み画像を持つショット数を返します。
func (seq Sequence) RenderedCount() int {
	count := 0
	for i := range seq {
		if seq[i].Rendered() {
			count++
		}
	}
	return count
}
