package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"yobro/internal/httperr"
	"yobro/internal/router"
)

// Format はボディの形式
type Format int

const (
	FormatJSON Format = iota // application/json
	FormatForm               // application/x-www-form-urlencoded
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatForm:
		return "form"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Body はリクエストボディを構造体 T に変換する
type Body[T any] struct {
	Format Format
	// Limit はボディの最大バイト数。0 は無制限
	Limit int64
	// ErrorStatus は抽出失敗時のステータス。0 なら400
	ErrorStatus int
}

// Extract はボディを読み込んで変換する
func (e Body[T]) Extract(req *router.Request) (T, error) {
	var v T

	buf, err := readBody(req.Request, e.Limit)
	if err != nil {
		return v, withStatus(err, e.ErrorStatus)
	}

	switch e.Format {
	case FormatJSON:
		err = decodeJSON(buf, &v)
	case FormatForm:
		err = decodeForm(buf, &v)
	default:
		err = fmt.Errorf("extract: unsupported body format %s", e.Format)
	}
	if err != nil {
		return v, withStatus(err, e.ErrorStatus)
	}
	return v, nil
}

// readBody は上限+1バイトまで読み込み、上限を超えたら TooLarge を返す
// 読み込み途中のバッファはエラー時に破棄される
func readBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	if limit > 0 && r.ContentLength > limit {
		return nil, httperr.TooLarge(limit)
	}

	var rd io.Reader = r.Body
	if limit > 0 {
		rd = io.LimitReader(r.Body, limit+1)
	}

	buf, err := io.ReadAll(rd)
	if err != nil {
		// 接続が切れた場合は処理を打ち切る
		if ctxErr := r.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("read body: %w", ctxErr)
		}
		return nil, httperr.Malformed(fmt.Errorf("read body: %w", err))
	}
	if limit > 0 && int64(len(buf)) > limit {
		return nil, httperr.TooLarge(limit)
	}
	return buf, nil
}

func decodeJSON(buf []byte, v any) error {
	err := binding.JSON.BindBody(buf, v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return classifyValidation(err)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return httperr.TypeMismatch(typeErr.Field, err)
	}
	return httperr.Malformed(err)
}

func decodeForm(buf []byte, v any) error {
	values, err := parseURLEncoded(string(buf))
	if err != nil {
		return httperr.Malformed(err)
	}
	if err := bindValues(v, "form", values); err != nil {
		return err
	}
	return validate(v)
}
