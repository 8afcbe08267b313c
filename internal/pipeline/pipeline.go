// Package pipeline は CLI 実行時の一連の工程（シーン読み込み、参照画像の
// 取り込み、全編生成、エクスポート成果物の保存）をオーケストレートします。
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/export"
	"github.com/shouni/go-storyboard-kit/pkg/planner"
	"github.com/shouni/go-storyboard-kit/pkg/server"
)

// Execute は、シーン記述と参照画像から絵コンテ全編を生成し、
// ZIPとグリッドPNGを保存するフルパイプラインです。
func Execute(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	scene, err := resolveScene(ctx, appCtx)
	if err != nil {
		return err
	}
	appCtx.Board.SetScene(scene)

	assets, err := loadAssets(cfg.Options.AssetsDir)
	if err != nil {
		return fmt.Errorf("参照画像の読み込みに失敗しました: %w", err)
	}
	if len(assets) == 0 {
		return fmt.Errorf("ディレクトリ '%s' に参照画像が見つかりません", cfg.Options.AssetsDir)
	}
	for _, asset := range assets {
		appCtx.Board.AddAsset(asset)
	}
	slog.Info("参照画像を取り込みました", "count", len(assets), "dir", cfg.Options.AssetsDir)

	if err := appCtx.Board.GenerateSequence(ctx); err != nil {
		return fmt.Errorf("全編生成に失敗しました: %w", err)
	}
	slog.Info("全編生成が完了しました",
		"title", appCtx.Board.Title(),
		"rendered", appCtx.Board.Shots().RenderedCount())

	return saveArtifacts(ctx, appCtx)
}

// ExecutePlanOnly は、画像生成を行わずショット構成案だけを作成して
// JSONとして保存します。
func ExecutePlanOnly(ctx context.Context, cfg *config.Config) error {
	// 構成案のみの実行では画像生成エンジンを組み立てません。
	aiClient, err := builder.InitializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return err
	}
	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return fmt.Errorf("GCSクライアントファクトリの作成に失敗しました: %w", err)
	}
	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return err
	}

	scene, err := resolveSceneFrom(ctx, reader, cfg.Options)
	if err != nil {
		return err
	}

	p := planner.NewGeminiPlanner(aiClient, cfg.GeminiModel)
	plan, err := p.Plan(ctx, scene, domain.SequenceLength)
	if err != nil {
		return fmt.Errorf("構成案の作成に失敗しました: %w", err)
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("構成案のエンコードに失敗しました: %w", err)
	}

	outputPath := cfg.Options.OutputFile
	if err := writer.Write(ctx, outputPath, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("構成案の保存に失敗しました: %w", err)
	}
	slog.Info("ショット構成案を保存しました", "path", outputPath, "shots", len(plan.Shots))
	return nil
}

// ExecuteServe は、ブラウザ向けの編集セッションサーバーを起動します。
// 終了は ctx のキャンセルか ListenAndServe のエラーです。
func ExecuteServe(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.Options.HTTPAddr,
		Handler: server.New(appCtx.Board).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("編集セッションサーバーを起動します", "addr", cfg.Options.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("シャットダウン要求を受け付けました")
		return srv.Shutdown(context.WithoutCancel(ctx))
	case err := <-errCh:
		return fmt.Errorf("HTTPサーバーが停止しました: %w", err)
	}
}

// setupAppContext は、提供された設定と共有コンポーネントを使用して、
// アプリケーションコンテキストを初期化して返します。
func setupAppContext(ctx context.Context, cfg *config.Config) (*builder.AppContext, error) {
	httpClient := httpkit.New(config.DefaultHTTPTimeout)
	aiClient, err := builder.InitializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("GCSクライアントファクトリの作成に失敗しました: %w", err)
	}
	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	b, err := builder.BuildBoard(cfg, httpClient, aiClient, reader)
	if err != nil {
		return nil, err
	}

	appCtx := builder.NewAppContext(cfg, httpClient, aiClient, reader, writer, b)
	return &appCtx, nil
}

// resolveScene はフラグまたはファイルからシーン記述を決定します。
func resolveScene(ctx context.Context, appCtx *builder.AppContext) (string, error) {
	return resolveSceneFrom(ctx, appCtx.Reader, appCtx.Options)
}

func resolveSceneFrom(ctx context.Context, reader remoteio.InputReader, opts config.GenerateOptions) (string, error) {
	if opts.Scene != "" {
		return opts.Scene, nil
	}
	if opts.SceneFile == "" {
		return "", fmt.Errorf("シーン（--scene または --scene-file）を指定してください")
	}

	rc, err := reader.Open(ctx, opts.SceneFile)
	if err != nil {
		return "", fmt.Errorf("シーンファイル '%s' の読み込みに失敗しました: %w", opts.SceneFile, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	scene := strings.TrimSpace(string(data))
	if scene == "" {
		return "", fmt.Errorf("シーンファイル '%s' が空です", opts.SceneFile)
	}
	return scene, nil
}

// saveArtifacts は ZIP とグリッド PNG を保存します。
func saveArtifacts(ctx context.Context, appCtx *builder.AppContext) error {
	b := appCtx.Board

	var zipBuf bytes.Buffer
	if err := export.WriteZip(&zipBuf, b.Title(), b.Shots()); err != nil {
		return fmt.Errorf("ZIPエクスポートに失敗しました: %w", err)
	}
	zipPath := appCtx.Options.OutputFile
	if err := appCtx.Writer.Write(ctx, zipPath, bytes.NewReader(zipBuf.Bytes()), "application/zip"); err != nil {
		return fmt.Errorf("ZIPの保存に失敗しました: %w", err)
	}

	gridData, err := export.EncodeGridPNG(b.Shots())
	if err != nil {
		return fmt.Errorf("グリッドPNGの生成に失敗しました: %w", err)
	}
	gridPath := appCtx.Options.GridFile
	if err := appCtx.Writer.Write(ctx, gridPath, bytes.NewReader(gridData), "image/png"); err != nil {
		return fmt.Errorf("グリッドPNGの保存に失敗しました: %w", err)
	}

	slog.Info("成果物を保存しました", "zip", zipPath, "grid", gridPath)
	return nil
}

// assetMimeTypes は取り込み対象の拡張子と MIME タイプの対応表です。
var assetMimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// loadAssets はローカルディレクトリから参照画像を取り込みます。
// サブディレクトリ名（characters/ や environments/ など）を分類タグとして
// 解釈し、ファイル名のソート順で挿入します。
func loadAssets(dir string) (domain.AssetList, error) {
	var assets domain.AssetList

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		mimeType, ok := assetMimeTypes[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		label := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		asset := domain.NewVisualAsset(data, mimeType, kindFromPath(dir, path), label)
		asset.Source = path
		assets = append(assets, asset)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// kindFromPath は assets ディレクトリ直下のサブディレクトリ名を分類タグへ
// 変換します。直下のファイルは AssetOther になります。
func kindFromPath(root, path string) domain.AssetKind {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return domain.AssetOther
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return domain.AssetOther
	}
	return domain.ParseAssetKind(strings.TrimSuffix(parts[0], "s"))
}
