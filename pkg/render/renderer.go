// Package render は、ショット定義を gemini-image-kit 経由の画像合成要求へ
// 変換するアダプターです。参照画像の File API アップロードを1アセット
// 1回に抑えるキャッシュを内蔵します。
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

// ShotAspectRatio は1ショット（1フレーム）の推奨アスペクト比です。
const ShotAspectRatio = "16:9"

// AssetUploader は参照画像を Gemini File API へアップロードする機能の
// narrow インターフェースです。gemini-image-kit の GeminiImageCore が
// これを満たします。
type AssetUploader interface {
	UploadFile(ctx context.Context, path string) (string, error)
}

// FrameGenerator は複数の参照画像を添えて1枚の画像を合成する機能の
// narrow インターフェースです。
type FrameGenerator interface {
	GenerateMangaPage(ctx context.Context, req imagedom.ImagePageRequest) (*imagedom.ImageResponse, error)
}

// ShotRenderer は board.Renderer の gemini-image-kit 実装です。
type ShotRenderer struct {
	uploader      AssetUploader
	generator     FrameGenerator
	promptBuilder *prompts.ShotPromptBuilder

	mu          sync.RWMutex
	resourceMap map[string]string // AssetID -> FileAPIURI
	uploadGroup singleflight.Group
}

// NewShotRenderer は ShotRenderer の新しいインスタンスを初期化済みの状態で生成します。
func NewShotRenderer(uploader AssetUploader, generator FrameGenerator, pb *prompts.ShotPromptBuilder) *ShotRenderer {
	return &ShotRenderer{
		uploader:      uploader,
		generator:     generator,
		promptBuilder: pb,
		resourceMap:   make(map[string]string),
	}
}

// RenderShot は参照画像を準備したうえで1ショット分の画像を合成します。
func (r *ShotRenderer) RenderShot(ctx context.Context, shot domain.ShotRecord, assets domain.AssetList, protocol string) (*domain.ShotImage, error) {
	uris, err := r.prepareAssetResources(ctx, assets)
	if err != nil {
		return nil, err
	}

	userPrompt, systemPrompt := r.promptBuilder.BuildShotPrompt(shot, assets, protocol)

	logger := slog.With("shot_type", shot.Type, "assets", len(assets))
	logger.Info("ショット合成を開始します")
	start := time.Now()

	resp, err := r.generator.GenerateMangaPage(ctx, imagedom.ImagePageRequest{
		Prompt:         userPrompt,
		SystemPrompt:   systemPrompt,
		NegativePrompt: prompts.NegativeShotPrompt,
		AspectRatio:    ShotAspectRatio,
		FileAPIURIs:    uris,
	})
	if err != nil {
		return nil, fmt.Errorf("画像合成エンジンの呼び出しに失敗しました: %w", err)
	}
	if resp == nil || len(resp.Data) == 0 {
		return nil, fmt.Errorf("画像合成エンジンが画像を返しませんでした")
	}

	logger.Info("ショット合成が完了しました", "duration", time.Since(start).Round(time.Millisecond))
	return &domain.ShotImage{Data: resp.Data, MimeType: resp.MimeType}, nil
}

// prepareAssetResources は全参照画像の File API URI を挿入順で返します。
// 未アップロードのアセットは errgroup により並列でアップロードします。
// プロンプト内の input_file_N 番号と URI の並びは一致する必要があります。
func (r *ShotRenderer) prepareAssetResources(ctx context.Context, assets domain.AssetList) ([]string, error) {
	eg, egCtx := errgroup.WithContext(ctx)

	for _, asset := range assets {
		asset := asset
		eg.Go(func() error {
			if _, err := r.getOrUploadAsset(egCtx, asset); err != nil {
				return fmt.Errorf("アセット %s の準備に失敗しました: %w", asset.Label, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	uris := make([]string, 0, len(assets))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, asset := range assets {
		uris = append(uris, r.resourceMap[asset.ID])
	}
	return uris, nil
}

// getOrUploadAsset は内部キャッシュを利用し、必要な場合のみアップロードを
// 実行します。同一アセットへの並行要求は singleflight で単一の実行へ
// 相乗りします。
func (r *ShotRenderer) getOrUploadAsset(ctx context.Context, asset domain.VisualAsset) (string, error) {
	r.mu.RLock()
	uri, ok := r.resourceMap[asset.ID]
	r.mu.RUnlock()
	if ok {
		return uri, nil
	}

	value, err, _ := r.uploadGroup.Do(asset.ID, func() (any, error) {
		// singleflight 待機中に他のゴルーチンが完了している可能性があるため再確認
		r.mu.RLock()
		existing, ok := r.resourceMap[asset.ID]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		path, cleanup, pathErr := r.resolveSourcePath(asset)
		if pathErr != nil {
			return nil, pathErr
		}
		defer cleanup()

		uploadedURI, uploadErr := r.uploader.UploadFile(ctx, path)
		if uploadErr != nil {
			return nil, uploadErr
		}

		r.mu.Lock()
		r.resourceMap[asset.ID] = uploadedURI
		r.mu.Unlock()
		return uploadedURI, nil
	})
	if err != nil {
		return "", err
	}

	uri, ok = value.(string)
	if !ok {
		return "", fmt.Errorf("singleflight から予期しない型が返されました: %T", value)
	}
	return uri, nil
}

// resolveSourcePath はアップロード可能なファイルパスを返します。
// 元ファイルのパスを持たないメモリ上のアセットは一時ファイルへ書き出し、
// cleanup でアップロード後に削除します。
func (r *ShotRenderer) resolveSourcePath(asset domain.VisualAsset) (string, func(), error) {
	if asset.Source != "" {
		return asset.Source, func() {}, nil
	}
	if len(asset.Data) == 0 {
		return "", nil, fmt.Errorf("アセット %s にデータもソースパスもありません", asset.Label)
	}

	tmp := filepath.Join(os.TempDir(), "storyboard-asset-"+asset.ID+extensionFor(asset.MimeType))
	if err := os.WriteFile(tmp, asset.Data, 0o600); err != nil {
		return "", nil, fmt.Errorf("一時ファイルの書き出しに失敗しました: %w", err)
	}
	return tmp, func() { _ = os.Remove(tmp) }, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
