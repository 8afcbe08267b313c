package board

import (
	"context"
	"slices"
)

// RegenerateShot は1ショット分の画像を（再）生成します。
//
// 参照画像が1枚も無い場合は検証エラーになり、状態は変更されません。
// ビジュアルプロトコルが未計算であればここで計算されます。成功時はその
// ショットの Image フィールドだけが置き換えられ、他のフィールドには
// 触れません。
//
// 同一ショットに対する生成は直列化されます。進行中の生成があるショットへの
// 2回目の呼び出しは KindConflict で拒否され、並行実行されることはありません。
// 生成中フラグは合成呼び出しの前に立てられ、成功・失敗・途中の検証エラーの
// いずれの経路でも必ず降ろされます。
func (b *Board) RegenerateShot(ctx context.Context, index int) error {
	if err := checkIndex(index); err != nil {
		return err
	}

	b.mu.Lock()
	if b.inflight[index] {
		b.mu.Unlock()
		return NewError(KindConflict, "ショット %d は生成中です", index+1)
	}
	if len(b.assets) == 0 {
		b.mu.Unlock()
		return NewError(KindValidation, "参照画像が1枚も登録されていません。先にアセットを追加してください")
	}
	b.inflight[index] = true
	shot := b.shots[index]
	assets := slices.Clone(b.assets)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.inflight, index)
		b.mu.Unlock()
	}()

	protocol, err := b.EnsureProtocol(ctx)
	if err != nil {
		return err
	}

	image, err := b.renderer.RenderShot(ctx, shot, assets, protocol)
	if err != nil {
		return WrapError(KindRender, err, "ショット %d の画像合成に失敗しました", index+1)
	}
	if image == nil || len(image.Data) == 0 {
		return NewError(KindRender, "ショット %d の合成結果に画像が含まれていません", index+1)
	}

	// 生成開始後にショットが編集されていても、結果は無条件に Image を
	// 上書きします（後勝ちの許容レース）。
	b.mu.Lock()
	b.shots[index].Image = image
	b.mu.Unlock()
	return nil
}
