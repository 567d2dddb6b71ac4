package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin/render"
)

// Handler はリクエストを受け取り、レスポンスまたはエラーを返す
type Handler func(req *Request) (Response, error)

// Middleware はハンドラを包んで共通処理を追加する
type Middleware func(next Handler) Handler

// Param はパスパターンで捕捉された名前付きセグメント
type Param struct {
	Key   string
	Value string
}

// Params は捕捉されたパラメータの一覧（パターン上の出現順）
type Params []Param

// Get は名前に対応するパラメータ値を返す
func (ps Params) Get(name string) (string, bool) {
	for _, p := range ps {
		if p.Key == name {
			return p.Value, true
		}
	}
	return "", false
}

// Values はパラメータを url.Values と同じ形の map で返す
func (ps Params) Values() map[string][]string {
	m := make(map[string][]string, len(ps))
	for _, p := range ps {
		m[p.Key] = append(m[p.Key], p.Value)
	}
	return m
}

// Request は1回のリクエスト処理の間だけ有効な照合結果付きリクエスト
type Request struct {
	*http.Request

	Route  string // 一致したパターン（スコープ展開後）
	Params Params
}

// Response はハンドラが返すレスポンス
type Response struct {
	Status int // 0 の場合はBodyが自身で書き込む
	Header http.Header
	Body   render.Render
}

// Text はテキストレスポンスを作成する
func Text(status int, format string, args ...any) Response {
	return Response{Status: status, Body: render.String{Format: format, Data: args}}
}

// JSON はJSONレスポンスを作成する
func JSON(status int, v any) Response {
	return Response{Status: status, Body: render.JSON{Data: v}}
}

// Status はボディ無しのレスポンスを作成する
func Status(status int) Response {
	return Response{Status: status}
}

// FromHTTP は標準の http.Handler をルートのハンドラとして使えるようにする
func FromHTTP(h http.Handler) Handler {
	return func(req *Request) (Response, error) {
		return Response{Body: httpRender{h: h, r: req.Request}}, nil
	}
}

type httpRender struct {
	h http.Handler
	r *http.Request
}

func (hr httpRender) Render(w http.ResponseWriter) error {
	hr.h.ServeHTTP(w, hr.r)
	return nil
}

func (httpRender) WriteContentType(http.ResponseWriter) {}

// PanicError はハンドラ内で回復されたpanicを表す
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}
