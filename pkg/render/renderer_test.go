package render

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

// fakeUploader はアップロード回数をアセットごとに記録します。
type fakeUploader struct {
	mu    sync.Mutex
	calls map[string]int
}

func (u *fakeUploader) UploadFile(_ context.Context, path string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.calls == nil {
		u.calls = make(map[string]int)
	}
	u.calls[path]++
	return "files/" + path, nil
}

func (u *fakeUploader) totalCalls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	total := 0
	for _, n := range u.calls {
		total += n
	}
	return total
}

// fakeGenerator は受け取った要求を記録して固定画像を返します。
type fakeGenerator struct {
	mu   sync.Mutex
	reqs []imagedom.ImagePageRequest
	err  error
}

func (g *fakeGenerator) GenerateMangaPage(_ context.Context, req imagedom.ImagePageRequest) (*imagedom.ImageResponse, error) {
	g.mu.Lock()
	g.reqs = append(g.reqs, req)
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return &imagedom.ImageResponse{Data: []byte{0x89, 'P', 'N', 'G'}, MimeType: "image/png"}, nil
}

func (g *fakeGenerator) lastRequest(t *testing.T) imagedom.ImagePageRequest {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.reqs) == 0 {
		t.Fatal("合成要求がありません")
	}
	return g.reqs[len(g.reqs)-1]
}

func sourceAsset(label, source string) domain.VisualAsset {
	asset := domain.NewVisualAsset(nil, "image/png", domain.AssetCharacter, label)
	asset.Source = source
	return asset
}

func TestShotRenderer_RenderShot(t *testing.T) {
	ctx := context.Background()
	shot := domain.ShotRecord{Type: domain.ShotHighAngle, Action: "屋上から見下ろす"}

	t.Run("参照画像が挿入順のURIとして渡されること", func(t *testing.T) {
		uploader := &fakeUploader{}
		generator := &fakeGenerator{}
		r := NewShotRenderer(uploader, generator, prompts.NewShotPromptBuilder(""))

		assets := domain.AssetList{
			sourceAsset("主人公", "ref/hero.png"),
			sourceAsset("屋上", "ref/rooftop.png"),
		}

		img, err := r.RenderShot(ctx, shot, assets, "protocol text")
		if err != nil {
			t.Fatalf("合成に失敗しました: %v", err)
		}
		if img == nil || len(img.Data) == 0 {
			t.Fatal("画像が返りませんでした")
		}

		req := generator.lastRequest(t)
		want := []string{"files/ref/hero.png", "files/ref/rooftop.png"}
		if len(req.FileAPIURIs) != len(want) {
			t.Fatalf("URI数が不正です: %v", req.FileAPIURIs)
		}
		for i, uri := range want {
			if req.FileAPIURIs[i] != uri {
				t.Errorf("URI[%d] = %s, 期待値 %s", i, req.FileAPIURIs[i], uri)
			}
		}
		if req.AspectRatio != ShotAspectRatio {
			t.Errorf("アスペクト比が不正です: %s", req.AspectRatio)
		}
		if !strings.Contains(req.Prompt, "high-angle") {
			t.Error("プロンプトにショットタイプ指示がありません")
		}
	})

	t.Run("同一アセットのアップロードは1回だけなこと", func(t *testing.T) {
		uploader := &fakeUploader{}
		generator := &fakeGenerator{}
		r := NewShotRenderer(uploader, generator, prompts.NewShotPromptBuilder(""))

		assets := domain.AssetList{sourceAsset("主人公", "ref/hero.png")}
		for i := 0; i < 3; i++ {
			if _, err := r.RenderShot(ctx, shot, assets, ""); err != nil {
				t.Fatal(err)
			}
		}
		if uploader.totalCalls() != 1 {
			t.Errorf("アップロードは1回のはずが %d 回でした", uploader.totalCalls())
		}
	})

	t.Run("合成エラーが伝播すること", func(t *testing.T) {
		uploader := &fakeUploader{}
		generator := &fakeGenerator{err: fmt.Errorf("blocked by safety filter")}
		r := NewShotRenderer(uploader, generator, prompts.NewShotPromptBuilder(""))

		_, err := r.RenderShot(ctx, shot, domain.AssetList{sourceAsset("a", "ref/a.png")}, "")
		if err == nil {
			t.Fatal("エラーを期待しましたが nil でした")
		}
	})

	t.Run("メモリ上のアセットは一時ファイル経由でアップロードされること", func(t *testing.T) {
		uploader := &fakeUploader{}
		generator := &fakeGenerator{}
		r := NewShotRenderer(uploader, generator, prompts.NewShotPromptBuilder(""))

		inMemory := domain.NewVisualAsset([]byte{1, 2, 3}, "image/jpeg", domain.AssetProp, "小道具")
		if _, err := r.RenderShot(ctx, shot, domain.AssetList{inMemory}, ""); err != nil {
			t.Fatal(err)
		}
		if uploader.totalCalls() != 1 {
			t.Fatalf("アップロード回数が不正です: %d", uploader.totalCalls())
		}
		for path := range uploader.calls {
			if !strings.Contains(path, inMemory.ID) || !strings.HasSuffix(path, ".jpg") {
				t.Errorf("一時ファイルパスが不正です: %s", path)
			}
		}
	})
}
