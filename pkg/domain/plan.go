package domain

// PlanEntry はシーケンスプランナーが返す1ショット分の構成指示です。
type PlanEntry struct {
	ShotType string `json:"shot_type"`
	Action   string `json:"action"`
}

// StoryboardPlan は AI モデルから返される絵コンテ全体の構成案です。
// Shots は SequenceLength 件であることをコントローラー側で検証します。
type StoryboardPlan struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Shots       []PlanEntry `json:"shots"`
}
