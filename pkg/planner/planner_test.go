package planner

import (
	"strings"
	"testing"
)

func TestParsePlan(t *testing.T) {
	t.Run("フェンス付きJSONブロックを解析できること", func(t *testing.T) {
		raw := "構成案はこちらです。\n```json\n" +
			`{"title": "坂道", "shots": [{"shot_type": "close-up", "action": "振り返る"}]}` +
			"\n```\n以上です。"

		plan, err := parsePlan(raw)
		if err != nil {
			t.Fatalf("解析に失敗しました: %v", err)
		}
		if plan.Title != "坂道" {
			t.Errorf("タイトルが違います: %s", plan.Title)
		}
		if len(plan.Shots) != 1 || plan.Shots[0].Action != "振り返る" {
			t.Errorf("ショットが正しく解析されていません: %+v", plan.Shots)
		}
	})

	t.Run("裸のJSONオブジェクトを解析できること", func(t *testing.T) {
		raw := `前置きテキスト {"title": "t", "shots": []} 後置きテキスト`
		plan, err := parsePlan(raw)
		if err != nil {
			t.Fatalf("解析に失敗しました: %v", err)
		}
		if plan.Title != "t" {
			t.Errorf("タイトルが違います: %s", plan.Title)
		}
	})

	t.Run("JSONを含まない応答はエラーになること", func(t *testing.T) {
		_, err := parsePlan("申し訳ありませんが、構成案を作成できませんでした。")
		if err == nil {
			t.Fatal("エラーを期待しましたが nil でした")
		}
		if !strings.Contains(err.Error(), "解析に失敗") {
			t.Errorf("エラーメッセージが不正です: %v", err)
		}
	})

	t.Run("長い応答はエラーメッセージ内で切り詰められること", func(t *testing.T) {
		_, err := parsePlan(strings.Repeat("x", 500))
		if err == nil {
			t.Fatal("エラーを期待しましたが nil でした")
		}
		if !strings.Contains(err.Error(), "...") {
			t.Errorf("切り詰めマーカーがありません: %v", err)
		}
	})
}
