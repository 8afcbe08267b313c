package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/config"
)

// opts は各コマンドが共有する実行時パラメータです。
var opts config.GenerateOptions

// rootCmd は ap-storyboard-go のエントリポイントとなるコマンドです。
var rootCmd = &cobra.Command{
	Use:   "ap-storyboard-go",
	Short: "シーン記述と参照画像から27ショットの絵コンテを生成するツールです。",
	Long: `シーン記述をAIで解析してショット構成案を作り、参照画像の視覚的な
一貫性を保ちながら27枚のショット画像を順次生成するのだ。
出力はZIP（個別ショット + マニフェスト）とグリッドPNGになるのだよ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags() {
	// --- ソース入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.Scene, "scene", "s", "", "シーン記述のテキストなのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.SceneFile, "scene-file", "f", "", "シーン記述ファイルのパス（ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.AssetsDir, "assets-dir", "a", config.DefaultAssetsDir, "参照画像を読み込むディレクトリなのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputFile, "output-file", "o", config.DefaultOutputFile, "保存パス（ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.GridFile, "grid-file", config.DefaultGridFile, "グリッドPNGの保存パスなのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", config.DefaultModel, "プラン/解析に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", config.DefaultImageModel, "ショット画像生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", config.DefaultRateInterval, "全編生成時のショット間ペーシングなのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Webリクエストのタイムアウトなのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// .env があれば読み込むのだ。無くてもエラーにはしないのだよ。
	_ = godotenv.Load()

	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}

	return nil
}

// loadConfig は環境変数とフラグから実行用の設定を組み立てるのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.GeminiImageModel = opts.ImageModel
	if opts.RateInterval > 0 {
		cfg.RateInterval = opts.RateInterval
	}
	cfg.Options = opts
	return cfg
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
// Ctrl+C で実行中のコマンドのコンテキストがキャンセルされるのだ。
func Execute() {
	addAppFlags()
	rootCmd.AddCommand(generateCmd, planCmd, serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
