// Package board は絵コンテの全可変状態（ショット列、参照画像、ビジュアル
// プロトコルのキャッシュ、生成中フラグ）を単一のコンテナとして所有し、
// 名前付きの変更操作だけを公開するコントローラーです。
//
// 外部コラボレーター（プランナー、アナライザー、レンダラー）はインター
// フェースとして注入され、本パッケージはネットワークの詳細を知りません。
package board

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/viewport"
)

// DefaultRateInterval は全編生成時にショット間へ挟むペーシング間隔の
// デフォルト値です。上流APIのスロットリングを避けるための流量制限です。
const DefaultRateInterval = 10 * time.Second

// Planner はシーン記述から順序付きのショット構成案を作成するコラボレーターです。
type Planner interface {
	Plan(ctx context.Context, scene string, count int) (*domain.StoryboardPlan, error)
}

// Analyzer は参照画像とシーン記述から「ビジュアルプロトコル」
// （スタイルと連続性の制約をまとめたテキスト）を抽出するコラボレーターです。
type Analyzer interface {
	Analyze(ctx context.Context, assets domain.AssetList, scene string) (string, error)
}

// Renderer は1ショット分の画像を合成するコラボレーターです。
// ショットタイプの明示的な指示は参照画像内の視覚的手掛かりより優先される
// 必要があります。
type Renderer interface {
	RenderShot(ctx context.Context, shot domain.ShotRecord, assets domain.AssetList, protocol string) (*domain.ShotImage, error)
}

// Deps は Board の構築に必要な依存コンポーネント群です。
type Deps struct {
	Planner  Planner
	Analyzer Analyzer
	Renderer Renderer

	// RateInterval は全編生成時のショット間ペーシングです。
	// ゼロ値の場合は DefaultRateInterval が使われます。
	RateInterval time.Duration
}

// Board は絵コンテ1枚分の状態を所有するコントローラーです。
// すべての公開メソッドはゴルーチンセーフです。
type Board struct {
	planner  Planner
	analyzer Analyzer
	renderer Renderer
	limiter  *rate.Limiter

	mu          sync.RWMutex
	shots       domain.Sequence
	assets      domain.AssetList
	scene       string
	title       string
	description string
	inflight    map[int]bool
	generating  bool

	// protocol はアセットリストから導出されるキャッシュ済みテキストです。
	// アセットの増減で即時に無効化され、protocolGen の世代番号によって
	// 無効化前に開始された計算結果の混入を防ぎます。
	protocol       string
	protocolGen    uint64
	protocolFlight singleflight.Group
}

// New は初期化済みの Board を生成します。3つのコラボレーターはすべて必須です。
func New(deps Deps) (*Board, error) {
	if deps.Planner == nil {
		return nil, fmt.Errorf("board: Planner は必須です")
	}
	if deps.Analyzer == nil {
		return nil, fmt.Errorf("board: Analyzer は必須です")
	}
	if deps.Renderer == nil {
		return nil, fmt.Errorf("board: Renderer は必須です")
	}

	interval := deps.RateInterval
	if interval <= 0 {
		interval = DefaultRateInterval
	}

	b := &Board{
		planner:  deps.Planner,
		analyzer: deps.Analyzer,
		renderer: deps.Renderer,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		shots:    domain.NewSequence(),
		inflight: make(map[int]bool),
	}
	for i := range b.shots {
		b.applyPresetLocked(i, b.shots[i].Type)
	}
	return b, nil
}

// applyPresetLocked は指定ショットのズームとアンカーをショットタイプの
// プリセットへ戻します。b.mu を保持した状態で呼び出してください。
func (b *Board) applyPresetLocked(index int, t domain.ShotType) {
	preset := t.Preset()
	b.shots[index].Type = t
	b.shots[index].Zoom = preset.Zoom
	b.shots[index].Position = viewport.ParseAnchor(preset.Anchor)
}

// checkIndex はショット番号の範囲を検証します。
func checkIndex(index int) error {
	if index < 0 || index >= domain.SequenceLength {
		return NewError(KindNotFound, "ショット番号 %d は範囲外です (0-%d)", index, domain.SequenceLength-1)
	}
	return nil
}

// --- 読み取り操作 ---

// Shots はショット列の防御的コピーを返します。エクスポート層はこの
// 読み取り専用ビューを消費します。
func (b *Board) Shots() domain.Sequence {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.shots)
}

// Shot は1ショットのコピーを返します。
func (b *Board) Shot(index int) (domain.ShotRecord, error) {
	if err := checkIndex(index); err != nil {
		return domain.ShotRecord{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.shots[index], nil
}

// Assets は参照画像リストの防御的コピーを返します。
func (b *Board) Assets() domain.AssetList {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.assets)
}

// Scene は現在のシーン記述を返します。
func (b *Board) Scene() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.scene
}

// Title は直近のプランが与えたタイトルを返します。
func (b *Board) Title() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.title
}

// Generating は全編生成のプラン工程が進行中かどうかを返します。
func (b *Board) Generating() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.generating
}

// Rendering は指定ショットの画像生成が進行中かどうかを返します。
func (b *Board) Rendering(index int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.inflight[index]
}

// RenderingFlags は UI 表示用に、生成中フラグ一式のコピーを返します。
func (b *Board) RenderingFlags() map[int]bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	flags := make(map[int]bool, len(b.inflight))
	for k, v := range b.inflight {
		flags[k] = v
	}
	return flags
}

// --- シーンとアセットの変更操作 ---

// SetScene はシーン記述を更新します。
func (b *Board) SetScene(scene string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scene = scene
}

// AddAsset は参照画像をリスト末尾へ追加します。
// アセットリストの変更はキャッシュ済みプロトコルを無条件に無効化します。
func (b *Board) AddAsset(asset domain.VisualAsset) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.assets = append(b.assets, asset)
	b.invalidateProtocolLocked()
}

// RemoveAsset は指定IDの参照画像を取り除きます。
func (b *Board) RemoveAsset(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.assets.IndexOf(id)
	if i < 0 {
		return NewError(KindNotFound, "アセット %s が見つかりません", id)
	}
	b.assets = slices.Delete(b.assets, i, i+1)
	b.invalidateProtocolLocked()
	return nil
}

// --- ショット単位の変更操作 ---

// SetAction はショットの内容記述を更新します。
func (b *Board) SetAction(index int, action string) error {
	if err := checkIndex(index); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shots[index].Action = action
	return nil
}

// SetZoom はショットのズーム率を更新します。ドメインは [100, 350] です。
func (b *Board) SetZoom(index int, zoom float64) error {
	if err := checkIndex(index); err != nil {
		return err
	}
	if zoom < viewport.MinZoom || zoom > viewport.MaxZoom {
		return NewError(KindValidation, "ズーム率 %v がドメイン [%d, %d] 外です", zoom, viewport.MinZoom, viewport.MaxZoom)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shots[index].Zoom = zoom
	return nil
}

// SetPosition はショットのアンカー位置を更新します。各軸のドメインは [0, 100] です。
func (b *Board) SetPosition(index int, pos domain.Position) error {
	if err := checkIndex(index); err != nil {
		return err
	}
	if pos.X < 0 || pos.X > 100 || pos.Y < 0 || pos.Y > 100 {
		return NewError(KindValidation, "アンカー座標 (%v, %v) がドメイン [0, 100] 外です", pos.X, pos.Y)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shots[index].Position = pos
	return nil
}

// SetShotType はショットタイプを変更し、ズームとアンカーをそのタイプの
// プリセットへ必ずリセットします。プロトコルまたは参照画像が存在する場合は、
// そのショットの再生成をバックグラウンドで起動します（呼び出し元に対しては
// fire-and-forget で、排他は生成中フラグにより保証されます）。
func (b *Board) SetShotType(ctx context.Context, index int, t domain.ShotType) error {
	if err := checkIndex(index); err != nil {
		return err
	}
	if !t.Valid() {
		return NewError(KindValidation, "未定義のショットタイプです: %s", t)
	}

	b.mu.Lock()
	b.applyPresetLocked(index, t)
	shouldRender := b.protocol != "" || len(b.assets) > 0
	b.mu.Unlock()

	if shouldRender {
		b.spawnRender(ctx, index)
	}
	return nil
}

// spawnRender はショット1枚の再生成を追跡付きのバックグラウンドタスクとして
// 起動します。排他制御は RegenerateShot 側の生成中フラグが担い、失敗は
// ログに残すのみで呼び出し元へは伝播しません。
func (b *Board) spawnRender(ctx context.Context, index int) {
	// 呼び出し元のリクエスト終了でレンダリングが道連れにならないよう、
	// キャンセルだけを切り離した context を使います。
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		if err := b.RegenerateShot(bgCtx, index); err != nil {
			slog.Warn("バックグラウンドのショット再生成に失敗しました",
				"index", index, "kind", KindOf(err), "error", err)
		}
	}()
}

// invalidateProtocolLocked はキャッシュ済みプロトコルを破棄し、世代番号を
// 進めます。b.mu を保持した状態で呼び出してください。
func (b *Board) invalidateProtocolLocked() {
	b.protocol = ""
	b.protocolGen++
}

// hasScene はシーン記述が実質的に空でないかを返します。
func hasScene(scene string) bool {
	return strings.TrimSpace(scene) != ""
}
