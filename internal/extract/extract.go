// Package extract は、ハンドラ実行前にリクエストの一部を型付きの値へ変換する抽出器を提供します。
//
// 抽出器はルートごとにインスタンスを作成して設定します。
// 失敗時のステータスは抽出器ごとの ErrorStatus で上書きでき、未設定なら400になります。
//
//	h := extract.With(extract.Body[Info]{Format: extract.FormatJSON, Limit: 4096, ErrorStatus: http.StatusConflict},
//	    func(req *router.Request, info Info) (router.Response, error) { ... })
package extract

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"yobro/internal/httperr"
	"yobro/internal/router"
)

// Extractor はリクエストから T を取り出す
type Extractor[T any] interface {
	Extract(req *router.Request) (T, error)
}

// With は抽出が成功した場合にのみ fn を呼び出すハンドラを作成する
func With[T any](ex Extractor[T], fn func(req *router.Request, v T) (router.Response, error)) router.Handler {
	return func(req *router.Request) (router.Response, error) {
		v, err := ex.Extract(req)
		if err != nil {
			return router.Response{}, err
		}
		return fn(req, v)
	}
}

// Path は捕捉されたパスパラメータを構造体 T に束縛する
// フィールドは `path:"name"` タグで対応付ける
type Path[T any] struct {
	ErrorStatus int
}

// Extract はパスパラメータを束縛する
func (e Path[T]) Extract(req *router.Request) (T, error) {
	var v T
	if err := bindValues(&v, "path", req.Params.Values()); err != nil {
		return v, withStatus(err, e.ErrorStatus)
	}
	if err := validate(&v); err != nil {
		return v, withStatus(err, e.ErrorStatus)
	}
	return v, nil
}

func init() {
	// 検証エラーのフィールド名にタグの名前を使う
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form", "query", "path"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return ""
		})
	}
}

// validate は `binding` タグの制約を検証する
func validate(v any) error {
	if binding.Validator == nil {
		return nil
	}
	if err := binding.Validator.ValidateStruct(v); err != nil {
		return classifyValidation(err)
	}
	return nil
}

// classifyValidation は検証エラーを Missing または Malformed に分類する
func classifyValidation(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return httperr.Missing(fe.Field())
		}
		return &httperr.ExtractionError{Kind: httperr.KindMalformed, Field: fe.Field(), Err: err}
	}
	return httperr.Malformed(err)
}

// withStatus は抽出エラーに抽出器のステータス設定を反映する
func withStatus(err error, status int) error {
	var ex *httperr.ExtractionError
	if status == 0 || !errors.As(err, &ex) {
		return err
	}
	c := *ex
	c.Status = status
	return &c
}
