package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義です
const (
	DefaultModel        = "gemini-3-flash-preview"
	DefaultImageModel   = "gemini-3-pro-image-preview"
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultRateInterval = 10 * time.Second
	DefaultHTTPAddr     = ":8787"
	DefaultAssetsDir    = "assets"               // CLI実行時に参照画像を読み込むディレクトリです
	DefaultOutputFile   = "output/storyboard.zip" // エクスポート成果物のデフォルト保存先です
	DefaultGridFile     = "output/storyboard_grid.png"
	DefaultStyleSuffix  = "cinematic storyboard frame, clean composition, consistent character design, painterly concept art, dramatic lighting, high detail, 16:9 frame, no text, no speech bubbles, high resolution"
)

// Config はアプリケーション全体の環境設定（APIキーやモデル名）を保持する構造体です。
type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string
	StyleSuffix      string
	RateInterval     time.Duration

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返します。
func LoadConfig() *Config {
	return &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		StyleSuffix:      envutil.GetEnv("STORYBOARD_STYLE_SUFFIX", DefaultStyleSuffix),
		RateInterval:     durationEnv("STORYBOARD_RATE_INTERVAL", DefaultRateInterval),
	}
}

// durationEnv は環境変数を time.Duration として解釈します。
// 未設定または不正な値の場合はフォールバック値を返します。
func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータです。
type GenerateOptions struct {
	// ソース入力関連
	Scene     string // --scene
	SceneFile string // --scene-file
	AssetsDir string // --assets-dir

	// 生成結果の出力設定
	OutputFile string // --output-file
	GridFile   string // --grid-file

	// AI挙動設定
	AIModel      string // --model: プラン/解析用のGeminiモデル
	ImageModel   string // --image-model: ショット画像生成用のGeminiモデル
	RateInterval time.Duration

	// serve 固有
	HTTPAddr string // --addr

	// 実行制御
	HTTPTimeout time.Duration // --http-timeout
}
