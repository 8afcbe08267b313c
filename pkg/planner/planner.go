// Package planner は、シーン記述を Gemini へ渡して絵コンテ全編の構成案
// （ショットタイプとアクションの順序付きリスト）を取得します。
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// GeminiPlanner はテキスト生成モデルを使うシーケンスプランナーです。
type GeminiPlanner struct {
	aiClient gemini.GenerativeModel
	model    string
}

// NewGeminiPlanner は依存関係を注入して初期化します。
func NewGeminiPlanner(aiClient gemini.GenerativeModel, model string) *GeminiPlanner {
	return &GeminiPlanner{
		aiClient: aiClient,
		model:    model,
	}
}

// Plan はシーン記述から count ショットの構成案を取得します。
// 件数の厳密な検証は呼び出し側（コントローラー）の責務です。
func (p *GeminiPlanner) Plan(ctx context.Context, scene string, count int) (*domain.StoryboardPlan, error) {
	prompt := prompts.BuildPlanPrompt(scene, count)

	slog.Info("Planner: Gemini へ構成案を要求します", "model", p.model, "shots", count)
	resp, err := p.aiClient.GenerateContent(ctx, prompt, p.model)
	if err != nil {
		return nil, fmt.Errorf("構成案の生成に失敗しました: %w", err)
	}

	plan, err := parsePlan(resp.Text)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// parsePlan は AI 応答から JSON を取り出して構成案に変換します。
// フェンス付きコードブロック、最外の JSON オブジェクト、応答全体の順で
// 解釈を試みます。
func parsePlan(raw string) (*domain.StoryboardPlan, error) {
	raw = strings.TrimSpace(raw)
	var rawJSON string

	matches := jsonBlockRegex.FindStringSubmatch(raw)
	if len(matches) > 1 {
		rawJSON = matches[1]
	} else {
		firstBracket := strings.Index(raw, "{")
		lastBracket := strings.LastIndex(raw, "}")
		if firstBracket != -1 && lastBracket != -1 && lastBracket > firstBracket {
			rawJSON = raw[firstBracket : lastBracket+1]
		} else {
			rawJSON = raw
		}
	}

	var plan domain.StoryboardPlan
	if err := json.Unmarshal([]byte(rawJSON), &plan); err != nil {
		return nil, fmt.Errorf("AI応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}
	return &plan, nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
