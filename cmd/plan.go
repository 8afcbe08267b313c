package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/pipeline"
)

// planCmd は、画像生成を行わずショット構成案だけを作成するのだ。
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "ショット構成案だけをJSONで出力しますなのだ。",
	Long: `シーン記述を解析して27ショット分の構成案（ショットタイプとアクション）を
作成し、JSONとして保存するのだ。画像生成は行わないのだよ。`,
	RunE: planCommand,
}

func planCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := loadConfig()

	slog.Info("ショット構成案の作成を開始するのだ", "model", cfg.GeminiModel, "output", opts.OutputFile)

	if err := pipeline.ExecutePlanOnly(ctx, cfg); err != nil {
		return fmt.Errorf("構成案の作成中にエラーが発生したのだ: %w", err)
	}
	return nil
}
