// Package httperr は、リクエスト処理中に発生するエラーの分類と、
// それをHTTPステータスとレスポンスボディへ変換するマッピングを提供します。
//
// 分類:
//   - ルーティング: ErrRouteNotFound (404), MethodNotAllowedError (405)
//   - 抽出: ExtractionError (Missing, TypeMismatch, Malformed, TooLarge)
//   - ドメイン: DomainError (既定は500)
//   - その他すべて (ロック異常やpanicを含む) は内部エラー (500)
package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrRouteNotFound はパスに一致するルートが存在しないことを表す
var ErrRouteNotFound = errors.New("route not found")

// StatusCoder は自身のHTTPステータスを宣言するエラーが実装する
type StatusCoder interface {
	StatusCode() int
}

// MethodNotAllowedError はパスには一致したがメソッドが登録されていないことを表す
type MethodNotAllowedError struct {
	Method  string
	Allowed []string // パスに登録されているメソッド
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("method %s not allowed (allowed: %s)", e.Method, strings.Join(e.Allowed, ", "))
}

func (e *MethodNotAllowedError) StatusCode() int { return http.StatusMethodNotAllowed }

// Kind は抽出エラーの種類
type Kind int

const (
	KindMissing      Kind = iota + 1 // 必須フィールドが無い
	KindTypeMismatch                 // 値をフィールドの型に変換できない
	KindMalformed                    // ボディを解析できない
	KindTooLarge                     // ボディがサイズ上限を超えた
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindTypeMismatch:
		return "type_mismatch"
	case KindMalformed:
		return "malformed"
	case KindTooLarge:
		return "too_large"
	default:
		return "unknown"
	}
}

// ExtractionError はハンドラ実行前のリクエスト抽出に失敗したことを表す
type ExtractionError struct {
	Kind  Kind
	Field string // 対象フィールド（分かる場合）
	// Status は抽出器ごとに設定された上書きステータス。0 なら 400
	Status int
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg += " field " + strconv.Quote(e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusBadRequest
}

// Missing は必須フィールド欠落の抽出エラーを作成する
func Missing(field string) *ExtractionError {
	return &ExtractionError{Kind: KindMissing, Field: field}
}

// TypeMismatch は型変換失敗の抽出エラーを作成する
func TypeMismatch(field string, err error) *ExtractionError {
	return &ExtractionError{Kind: KindTypeMismatch, Field: field, Err: err}
}

// Malformed は解析失敗の抽出エラーを作成する
func Malformed(err error) *ExtractionError {
	return &ExtractionError{Kind: KindMalformed, Err: err}
}

// TooLarge はサイズ超過の抽出エラーを作成する
func TooLarge(limit int64) *ExtractionError {
	return &ExtractionError{Kind: KindTooLarge, Err: fmt.Errorf("body exceeds %d bytes", limit)}
}

// DomainError はハンドラが返すアプリケーションエラー
type DomainError struct {
	Message string
	Status  int // 0 の場合は500
}

// NewDomainError は既定ステータス(500)のドメインエラーを作成する
func NewDomainError(format string, args ...any) *DomainError {
	return &DomainError{Message: fmt.Sprintf(format, args...)}
}

func (e *DomainError) Error() string { return e.Message }

func (e *DomainError) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// WithStatus はステータスを宣言したドメインエラーのコピーを返す
func (e *DomainError) WithStatus(status int) *DomainError {
	c := *e
	c.Status = status
	return &c
}
