package extract

import (
	"yobro/internal/httperr"
	"yobro/internal/router"
)

// Query はクエリ文字列を構造体 T に束縛する
// フィールドは `query:"name"` タグで対応付ける
type Query[T any] struct {
	ErrorStatus int
}

// Extract はクエリ文字列を束縛する
func (e Query[T]) Extract(req *router.Request) (T, error) {
	var v T

	values, err := parseURLEncoded(req.URL.RawQuery)
	if err != nil {
		return v, withStatus(httperr.Malformed(err), e.ErrorStatus)
	}
	if err := bindValues(&v, "query", values); err != nil {
		return v, withStatus(err, e.ErrorStatus)
	}
	if err := validate(&v); err != nil {
		return v, withStatus(err, e.ErrorStatus)
	}
	return v, nil
}
