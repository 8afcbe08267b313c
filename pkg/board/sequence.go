package board

import (
	"context"
	"log/slog"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/viewport"
)

// GenerateSequence は絵コンテ全編の生成を2工程で実行します。
//
// プラン工程: ビジュアルプロトコルを確保したうえでプランナーに
// SequenceLength 件ちょうどの構成案を要求します。件数が合わない・空などの
// 不正な結果は KindPlanning として全体を中断し、ショット列は一切変更され
// ません。正常な構成案は1回のロック区間内で全ショットへ反映されるため、
// 観測者から見て部分更新の状態は存在しません。プラン工程の間だけ
// シーケンスレベルの生成中フラグが立ちます。
//
// レンダー工程: ショットを 0 から昇順に1枚ずつ、前のショットの完了
// （成功・失敗を問わず）を待ってから生成します。ショット間にはレート
// リミッターによるペーシングが入ります。個々のショットの失敗はログに
// 記録して次へ進み、工程全体は中断しません。context のキャンセルだけが
// 工程を中断します。
func (b *Board) GenerateSequence(ctx context.Context) error {
	b.mu.Lock()
	if !hasScene(b.scene) {
		b.mu.Unlock()
		return NewError(KindValidation, "シーン記述が空です。先にシーンを入力してください")
	}
	if b.generating {
		b.mu.Unlock()
		return NewError(KindConflict, "全編生成が進行中です")
	}
	b.generating = true
	b.mu.Unlock()

	planErr := b.runPlanPhase(ctx)

	b.mu.Lock()
	b.generating = false
	b.mu.Unlock()

	if planErr != nil {
		return planErr
	}

	return b.runRenderPhase(ctx)
}

// runPlanPhase はプロトコルの確保、構成案の取得と検証、ショット列への
// 一括反映を行います。
func (b *Board) runPlanPhase(ctx context.Context) error {
	scene := b.Scene()

	if _, err := b.EnsureProtocol(ctx); err != nil {
		return err
	}

	slog.Info("絵コンテ構成案を要求します", "shots", domain.SequenceLength)
	start := time.Now()

	plan, err := b.planner.Plan(ctx, scene, domain.SequenceLength)
	if err != nil {
		return WrapError(KindPlanning, err, "構成案の取得に失敗しました")
	}
	if plan == nil || len(plan.Shots) != domain.SequenceLength {
		got := 0
		if plan != nil {
			got = len(plan.Shots)
		}
		return NewError(KindPlanning, "構成案のショット数が不正です: 期待 %d, 実際 %d", domain.SequenceLength, got)
	}

	slog.Info("構成案を受領しました", "title", plan.Title, "duration", time.Since(start).Round(time.Millisecond))

	// 全ショットへの反映は単一のロック区間で行い、外部からは
	// プラン前かプラン後の状態しか観測できないようにします。
	b.mu.Lock()
	b.title = plan.Title
	b.description = plan.Description
	for i, entry := range plan.Shots {
		shotType, ok := domain.ParseShotType(entry.ShotType)
		if !ok {
			slog.Warn("構成案のショットタイプが解釈できないためデフォルトを使います",
				"index", i, "shot_type", entry.ShotType)
		}
		preset := shotType.Preset()
		b.shots[i] = domain.ShotRecord{
			Type:     shotType,
			Action:   entry.Action,
			Zoom:     preset.Zoom,
			Position: viewport.ParseAnchor(preset.Anchor),
		}
	}
	b.mu.Unlock()
	return nil
}

// runRenderPhase は全ショットをインデックス順に直列で生成します。
func (b *Board) runRenderPhase(ctx context.Context) error {
	for i := 0; i < domain.SequenceLength; i++ {
		if err := b.limiter.Wait(ctx); err != nil {
			return WrapError(KindRender, err, "ペーシング待機中に中断されました")
		}

		if err := b.RegenerateShot(ctx, i); err != nil {
			if ctx.Err() != nil {
				return WrapError(KindRender, ctx.Err(), "レンダー工程が中断されました")
			}
			// 1ショットの失敗は次のショットの生成を妨げません。
			// 画像は欠落のまま残り、ユーザーが個別に再生成できます。
			slog.Warn("ショットの生成に失敗したため次へ進みます",
				"index", i, "kind", KindOf(err), "error", err)
			continue
		}

		slog.Info("ショットを生成しました", "index", i, "total", domain.SequenceLength)
	}
	return nil
}
