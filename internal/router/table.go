package router

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/gin-gonic/gin/render"

	"yobro/internal/httperr"
)

// Table は構築後に変更されないルーティングテーブル
// 複数のゴルーチンから同時に利用できる
type Table struct {
	routes []*Route
	byLen  map[int][]*Route // セグメント数ごとのルート
	logger *slog.Logger
}

// Routes は登録順のルート一覧を返す
func (t *Table) Routes() []Route {
	out := make([]Route, 0, len(t.routes))
	for _, rt := range t.routes {
		out = append(out, Route{Method: rt.Method, Pattern: rt.Pattern})
	}
	return out
}

// Match はメソッドとエスケープされたパス (URL.EscapedPath) に一致するルートを探す
// 一致しない場合は httperr.ErrRouteNotFound または *httperr.MethodNotAllowedError を返す
func (t *Table) Match(method, path string) (*Route, Params, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, nil, httperr.ErrRouteNotFound
	}

	var best *Route
	var allowed []string
	for _, rt := range t.byLen[len(parts)] {
		if !rt.matches(parts) {
			continue
		}
		if rt.Method != method {
			allowed = append(allowed, rt.Method)
			continue
		}
		if best == nil || rt.moreSpecific(best) {
			best = rt
		}
	}

	if best != nil {
		return best, best.capture(parts), nil
	}
	if len(allowed) > 0 {
		return nil, nil, &httperr.MethodNotAllowedError{Method: method, Allowed: uniqueSorted(allowed)}
	}
	return nil, nil, httperr.ErrRouteNotFound
}

func (rt *Route) matches(parts []string) bool {
	for i, s := range rt.segments {
		if s.isParam() {
			if parts[i] == "" {
				return false
			}
			continue
		}
		if s.literal != parts[i] {
			return false
		}
	}
	return true
}

// moreSpecific は最初に異なる位置でrtがリテラルならtrueを返す
func (rt *Route) moreSpecific(other *Route) bool {
	for i, s := range rt.segments {
		o := other.segments[i]
		if s.isParam() != o.isParam() {
			return !s.isParam()
		}
	}
	return false
}

func (rt *Route) capture(parts []string) Params {
	var ps Params
	for i, s := range rt.segments {
		if s.isParam() {
			ps = append(ps, Param{Key: s.param, Value: parts[i]})
		}
	}
	return ps
}

// ServeHTTP はリクエストを照合してハンドラを呼び出し、結果を書き込む
func (t *Table) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt, params, err := t.Match(r.Method, r.URL.EscapedPath())
	if err != nil {
		t.writeError(w, err)
		return
	}

	req := &Request{Request: r, Route: rt.Pattern, Params: params}
	resp, err := t.invoke(rt, req)
	if err != nil {
		t.writeError(w, err)
		return
	}

	if err := writeResponse(w, resp); err != nil {
		// クライアント切断などで書き込めなかった
		t.logger.Debug("レスポンスの書き込みに失敗しました", "route", rt.Pattern, "error", err)
	}
}

// invoke はミドルウェアを含むハンドラ呼び出しを行い、panicをエラーに変換する
func (t *Table) invoke(rt *Route, req *Request) (resp Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recovered(t.logger, rt.Pattern, rec)
		}
	}()
	return rt.handler(req)
}

// recoverHandler はミドルウェアがpanicを500として観測できるようにハンドラを包む
func recoverHandler(logger *slog.Logger, h Handler) Handler {
	return func(req *Request) (resp Response, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = recovered(logger, req.Route, rec)
			}
		}()
		return h(req)
	}
}

// recovered はpanicを記録してエラーに変換する
// http.ErrAbortHandler は接続を中断させるため再度panicする
func recovered(logger *slog.Logger, pattern string, rec any) error {
	if rec == http.ErrAbortHandler {
		panic(rec)
	}
	logger.Error("ハンドラでpanicが発生しました", "route", pattern, "panic", rec, "stack", string(debug.Stack()))
	return &PanicError{Value: rec}
}

func (t *Table) writeError(w http.ResponseWriter, err error) {
	status, body := httperr.Map(err)

	var mna *httperr.MethodNotAllowedError
	if errors.As(err, &mna) {
		w.Header().Set("Allow", strings.Join(mna.Allowed, ", "))
	}

	r := render.JSON{Data: body}
	r.WriteContentType(w)
	w.WriteHeader(status)
	if err := r.Render(w); err != nil {
		t.logger.Debug("エラーレスポンスの書き込みに失敗しました", "error", err)
	}
}

func writeResponse(w http.ResponseWriter, resp Response) error {
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	if resp.Body == nil {
		status := resp.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		return nil
	}

	resp.Body.WriteContentType(w)
	if resp.Status != 0 {
		w.WriteHeader(resp.Status)
	}
	return resp.Body.Render(w)
}

func uniqueSorted(ss []string) []string {
	sort.Strings(ss)
	out := ss[:0]
	for i, s := range ss {
		if i == 0 || s != ss[i-1] {
			out = append(out, s)
		}
	}
	return out
}
