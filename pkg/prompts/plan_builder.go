package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// BuildPlanPrompt は、シーン記述から count ショットちょうどの構成案 JSON を
// 要求するプロンプトを構築します。
func BuildPlanPrompt(scene string, count int) string {
	var sb strings.Builder

	sb.WriteString(planSystemInstruction)
	sb.WriteString("\n\n")

	sb.WriteString("### TASK ###\n")
	sb.WriteString(fmt.Sprintf("Break the scene below into exactly %d cinematic shots that tell the story in order.\n\n", count))

	sb.WriteString("### ALLOWED SHOT TYPES ###\n")
	for _, t := range domain.AllShotTypes {
		sb.WriteString(fmt.Sprintf("- %s\n", t))
	}
	sb.WriteString("\n")

	sb.WriteString("### OUTPUT FORMAT (JSON only, no prose) ###\n")
	sb.WriteString(`{
  "title": "short title of the sequence",
  "description": "one sentence summary",
  "shots": [
    { "shot_type": "one of the allowed shot types", "action": "what happens in this shot" }
  ]
}`)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("The \"shots\" array MUST contain exactly %d entries.\n\n", count))

	sb.WriteString("### SCENE ###\n")
	sb.WriteString(scene)
	sb.WriteString("\n")

	return sb.String()
}

// BuildProtocolPrompt は、参照画像の一覧とシーン記述から「ビジュアル
// プロトコル」（画面づくりの一貫性制約テキスト）を抽出するプロンプトを
// 構築します。参照画像は挿入順のまま input_file_N として番号参照されます。
func BuildProtocolPrompt(assets domain.AssetList, scene string) string {
	var sb strings.Builder

	sb.WriteString(protocolSystemInstruction)
	sb.WriteString("\n\n")

	sb.WriteString("### REFERENCE IMAGES ###\n")
	for i, asset := range assets {
		sb.WriteString(fmt.Sprintf("- input_file_%d: %s\n", i+1, asset))
	}
	sb.WriteString("\n")

	if strings.TrimSpace(scene) != "" {
		sb.WriteString("### SCENE ###\n")
		sb.WriteString(scene)
		sb.WriteString("\n\n")
	}

	sb.WriteString("### TASK ###\n")
	sb.WriteString(`Describe, as a compact plain-text protocol, the visual constraints every generated shot must honor:
- color palette and lighting mood
- character appearance and wardrobe (per reference image)
- environment, era and key props
- lens/film texture
Answer with the protocol text only.`)
	sb.WriteString("\n")

	return sb.String()
}
