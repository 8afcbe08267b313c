package board

import (
	"context"
	"slices"
	"strconv"
	"strings"
)

// Protocol はキャッシュ済みのビジュアルプロトコルを返します。
// 未計算または無効化済みの場合は空文字列です。
func (b *Board) Protocol() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.protocol
}

// EnsureProtocol はキャッシュ済みプロトコルがあればそれを返し、無ければ
// アナライザーへの解析呼び出しを1回だけ実行して結果をキャッシュします。
// 参照画像が1枚も無い場合は検証エラーになります。
//
// 計算中に到着した並行呼び出しは singleflight により同一の実行へ相乗りし、
// 二重の解析呼び出しは発生しません。キャッシュ済みプロトコルは世代番号付きで
// 管理され、アセットリストの変更後に解決した古い計算結果はキャッシュへ
// 書き込まれません。
func (b *Board) EnsureProtocol(ctx context.Context) (string, error) {
	b.mu.RLock()
	cached := b.protocol
	gen := b.protocolGen
	assets := slices.Clone(b.assets)
	scene := b.scene
	b.mu.RUnlock()

	if cached != "" {
		return cached, nil
	}
	if len(assets) == 0 {
		return "", NewError(KindValidation, "参照画像が1枚も登録されていません。先にアセットを追加してください")
	}

	key := strconv.FormatUint(gen, 10)
	value, err, _ := b.protocolFlight.Do(key, func() (any, error) {
		// singleflight 待機中に別のゴルーチンが計算を完了させている
		// 可能性があるため、コールバック内でキャッシュを再確認します。
		b.mu.RLock()
		existing := b.protocol
		currentGen := b.protocolGen
		b.mu.RUnlock()
		if existing != "" && currentGen == gen {
			return existing, nil
		}

		text, analyzeErr := b.analyzer.Analyze(ctx, assets, scene)
		if analyzeErr != nil {
			return nil, WrapError(KindProtocol, analyzeErr, "ビジュアルプロトコルの解析に失敗しました")
		}
		if strings.TrimSpace(text) == "" {
			return nil, NewError(KindProtocol, "アナライザーが空のプロトコルを返しました")
		}

		b.mu.Lock()
		// 計算中にアセットリストが変更されていた場合、この結果は
		// 廃止されたアセット集合に基づくため、キャッシュしません。
		if b.protocolGen == gen {
			b.protocol = text
		}
		b.mu.Unlock()
		return text, nil
	})
	if err != nil {
		return "", err
	}

	text, ok := value.(string)
	if !ok {
		return "", NewError(KindProtocol, "singleflight から予期しない型が返されました: %T", value)
	}
	return text, nil
}
