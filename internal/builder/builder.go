package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	imagekit "github.com/shouni/gemini-image-kit/pkg/generator"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/analyzer"
	"github.com/shouni/go-storyboard-kit/pkg/board"
	"github.com/shouni/go-storyboard-kit/pkg/planner"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/render"
)

const (
	defaultGeminiTemperature = float32(0.2)
	defaultCacheExpiration   = 5 * time.Minute
	cacheCleanupInterval     = 15 * time.Minute
	defaultTTL               = 5 * time.Minute
)

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, apiKey string) (gemini.GenerativeModel, error) {
	temperature := defaultGeminiTemperature
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: &temperature,
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// BuildBoard は3つのコラボレーターを組み立てて Board を構築します。
func BuildBoard(
	cfg *config.Config,
	httpClient httpkit.ClientInterface,
	aiClient gemini.GenerativeModel,
	reader remoteio.InputReader,
) (*board.Board, error) {
	imgGen, assetMgr, err := initializeImageEngine(cfg.GeminiImageModel, httpClient, aiClient, reader)
	if err != nil {
		return nil, fmt.Errorf("画像生成エンジンの初期化に失敗しました: %w", err)
	}

	pb := prompts.NewShotPromptBuilder(cfg.StyleSuffix)

	b, err := board.New(board.Deps{
		Planner:      planner.NewGeminiPlanner(aiClient, cfg.GeminiModel),
		Analyzer:     analyzer.NewGeminiAnalyzer(aiClient, cfg.GeminiModel),
		Renderer:     render.NewShotRenderer(assetMgr, imgGen, pb),
		RateInterval: cfg.RateInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("ボードの構築に失敗しました: %w", err)
	}
	return b, nil
}

// initializeImageEngine は、画像キャッシュを含む gemini-image-kit のコアを
// 初期化し、生成エンジンとアセットマネージャーの両方を返します。
func initializeImageEngine(
	model string,
	httpClient httpkit.ClientInterface,
	aiClient gemini.GenerativeModel,
	reader remoteio.InputReader,
) (imagekit.ImageGenerator, imagekit.AssetManager, error) {
	imgCache := cache.New(defaultCacheExpiration, cacheCleanupInterval)
	core, err := imagekit.NewGeminiImageCore(
		aiClient,
		reader,
		httpClient,
		imgCache,
		defaultTTL,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("GeminiImageCore の初期化に失敗しました: %w", err)
	}

	imgGen, err := imagekit.NewGeminiGenerator(
		model,
		core,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("GeminiGenerator の初期化に失敗しました: %w", err)
	}

	return imgGen, core, nil
}
