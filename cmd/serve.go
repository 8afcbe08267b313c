package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"
)

// serveCmd は、ブラウザから絵コンテを編集するためのセッションサーバーを起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "ブラウザ向けの編集セッションサーバーを起動しますなのだ。",
	Long: `参照画像のアップロード、ショットの編集、個別再生成、全編生成を
HTTP API として公開するのだ。Ctrl+C で停止するのだよ。`,
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&opts.HTTPAddr, "addr", config.DefaultHTTPAddr, "待ち受けアドレスなのだ。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := loadConfig()

	slog.Info("編集セッションを準備するのだ",
		"addr", opts.HTTPAddr,
		"text_model", cfg.GeminiModel,
		"image_model", cfg.GeminiImageModel)

	if err := pipeline.ExecuteServe(ctx, cfg); err != nil {
		return fmt.Errorf("サーバー実行中にエラーが発生したのだ: %w", err)
	}
	return nil
}
