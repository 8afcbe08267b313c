package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// ShotPromptBuilder は、ショット定義とビジュアルプロトコルから
// 画像合成用のプロンプト一式を構築します。
type ShotPromptBuilder struct {
	styleSuffix string
}

// NewShotPromptBuilder は新しい ShotPromptBuilder を生成します。
// suffix が空の場合は DefaultStyleSuffix が使われます。
func NewShotPromptBuilder(suffix string) *ShotPromptBuilder {
	if suffix == "" {
		suffix = DefaultStyleSuffix
	}
	return &ShotPromptBuilder{styleSuffix: suffix}
}

// BuildShotPrompt は UserPrompt と SystemPrompt を生成します。
// ショットタイプの指示は参照画像の視覚的手掛かりより必ず優先されるよう、
// UserPrompt の先頭に強制ディレクティブとして配置します。
func (pb *ShotPromptBuilder) BuildShotPrompt(shot domain.ShotRecord, assets domain.AssetList, protocol string) (string, string) {
	// --- 1. System Prompt の構築 (役割・画風) ---
	var ss strings.Builder
	ss.WriteString(shotSystemInstruction)
	ss.WriteString("\n\n")
	ss.WriteString(RenderingStyle)
	if pb.styleSuffix != "" {
		ss.WriteString("\n\n")
		ss.WriteString(fmt.Sprintf("### GLOBAL VISUAL STYLE ###\n%s", pb.styleSuffix))
	}
	systemPrompt := ss.String()

	// --- 2. User Prompt の構築 (ショット固有の内容) ---
	var us strings.Builder
	us.WriteString(fmt.Sprintf("### SHOT TYPE DIRECTIVE: %s ###\n", shot.Type))
	us.WriteString("- This framing directive is MANDATORY and overrides any framing implied by the reference images.\n\n")

	if action := strings.TrimSpace(shot.Action); action != "" {
		us.WriteString(fmt.Sprintf("### ACTION ###\n%s\n\n", action))
	}

	if protocol != "" {
		us.WriteString(fmt.Sprintf("### VISUAL PROTOCOL (style & continuity constraints) ###\n%s\n\n", protocol))
	}

	if len(assets) > 0 {
		us.WriteString("### REFERENCE IMAGES ###\n")
		for i, asset := range assets {
			us.WriteString(fmt.Sprintf("- input_file_%d: %s\n", i+1, asset))
		}
	}

	return us.String(), systemPrompt
}
