// Package analyzer は、参照画像リストとシーン記述から「ビジュアルプロトコル」
// （全ショットが守るべきスタイルと連続性の制約テキスト）を抽出します。
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-gemini-client/pkg/gemini"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

// GeminiAnalyzer はテキスト生成モデルを使うアセット解析コラボレーターです。
type GeminiAnalyzer struct {
	aiClient gemini.GenerativeModel
	model    string
}

// NewGeminiAnalyzer は依存関係を注入して初期化します。
func NewGeminiAnalyzer(aiClient gemini.GenerativeModel, model string) *GeminiAnalyzer {
	return &GeminiAnalyzer{
		aiClient: aiClient,
		model:    model,
	}
}

// Analyze は現在のアセット一覧とシーン記述からプロトコルテキストを生成します。
func (a *GeminiAnalyzer) Analyze(ctx context.Context, assets domain.AssetList, scene string) (string, error) {
	prompt := prompts.BuildProtocolPrompt(assets, scene)

	slog.Info("Analyzer: ビジュアルプロトコルを抽出します", "model", a.model, "assets", len(assets))
	start := time.Now()

	resp, err := a.aiClient.GenerateContent(ctx, prompt, a.model)
	if err != nil {
		return "", fmt.Errorf("ビジュアルプロトコルの抽出に失敗しました: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	slog.Info("Analyzer: 抽出が完了しました",
		"chars", len(text), "duration", time.Since(start).Round(time.Millisecond))
	return text, nil
}
