package board

import (
	"errors"
	"fmt"
)

// Kind はエラーの機械可読な分類コードです。
// CLI と HTTP API の双方で一貫したハンドリングを行うために使用します。
type Kind string

const (
	// KindValidation は入力不備（シーン記述なし、参照画像なし等）です。
	// 状態は一切変更されません。
	KindValidation Kind = "VALIDATION"
	// KindPlanning はプランナーが空または不正な構成案を返した場合です。
	// 全編生成を中断し、ショット列は変更されません。
	KindPlanning Kind = "PLANNING"
	// KindRender は画像合成の失敗（エラー応答または画像なし）です。
	KindRender Kind = "RENDER"
	// KindProtocol はビジュアルプロトコルの解析失敗です。
	KindProtocol Kind = "PROTOCOL"
	// KindConflict は同一ショットへの多重生成要求など、進行中の処理との
	// 競合です。
	KindConflict Kind = "CONFLICT"
	// KindNotFound は存在しないアセットIDやショット番号の指定です。
	KindNotFound Kind = "NOT_FOUND"
)

// Error は分類コード付きの構造化エラーです。
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error は error インターフェースを実装します。
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap は errors.Is / errors.As のために原因エラーを返します。
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError は指定した分類コードの新しいエラーを生成します。
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError は既存のエラーを分類コード付きでラップします。
func WrapError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf はエラーの分類コードを返します。構造化されていないエラーは
// 空文字列になります。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind はエラーが指定の分類コードを持つかどうかを返します。
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
