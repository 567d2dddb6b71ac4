package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Route は登録済みのルート
type Route struct {
	Method  string
	Pattern string

	segments []segment
	handler  Handler
}

// Router はルートを登録するビルダー
// Build を呼ぶと不変な Table を作成する
type Router struct {
	routes     []*Route
	middleware []Middleware
	errs       []error
	logger     *slog.Logger
}

// Option はRouterの設定
type Option func(*Router)

// WithLogger はpanicなどを記録するロガーを設定する
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New は新しいRouterを作成する
func New(opts ...Option) *Router {
	r := &Router{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use は全ルートに適用するミドルウェアを追加する
// 先に追加したものが外側になる
func (r *Router) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

// Handle はメソッドとパターンにハンドラを登録する
// 不正なパターンや曖昧な登録は Build がエラーとして返す
func (r *Router) Handle(method, pattern string, h Handler) {
	segs, err := parsePattern(pattern)
	if err != nil {
		r.errs = append(r.errs, err)
		return
	}
	r.add(method, segs, h)
}

// GET はGETルートを登録する
func (r *Router) GET(pattern string, h Handler) { r.Handle(http.MethodGet, pattern, h) }

// POST はPOSTルートを登録する
func (r *Router) POST(pattern string, h Handler) { r.Handle(http.MethodPost, pattern, h) }

// Group はプレフィックス配下にルートを登録するスコープを返す
func (r *Router) Group(prefix string) *Group {
	segs, err := parsePattern(prefix)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("scope: %w", err))
	}
	return &Group{router: r, prefix: segs}
}

// Mount はサブテーブルのルートをプレフィックス付きで登録する
func (r *Router) Mount(prefix string, sub *Router) {
	segs, err := parsePattern(prefix)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("mount: %w", err))
		return
	}
	r.errs = append(r.errs, sub.errs...)
	for _, rt := range sub.routes {
		r.add(rt.Method, join(segs, rt.segments), wrap(sub.middleware, rt.handler))
	}
}

func (r *Router) add(method string, segs []segment, h Handler) {
	method = strings.ToUpper(method)
	pattern := formatPattern(segs)

	if method == "" || h == nil {
		r.errs = append(r.errs, fmt.Errorf("route %s %q: method and handler are required", method, pattern))
		return
	}
	if err := checkParams(segs); err != nil {
		r.errs = append(r.errs, fmt.Errorf("route %s %q: %w", method, pattern, err))
		return
	}

	for _, rt := range r.routes {
		if rt.Method == method && sameShape(rt.segments, segs) {
			r.errs = append(r.errs, fmt.Errorf("route %s %q is ambiguous with %s %q", method, pattern, rt.Method, rt.Pattern))
			return
		}
	}

	r.routes = append(r.routes, &Route{
		Method:   method,
		Pattern:  pattern,
		segments: segs,
		handler:  h,
	})
}

// Build は登録内容を検証し、不変なルーティングテーブルを作成する
func (r *Router) Build() (*Table, error) {
	if err := errors.Join(r.errs...); err != nil {
		return nil, fmt.Errorf("invalid route table: %w", err)
	}

	t := &Table{
		byLen:  make(map[int][]*Route),
		logger: r.logger,
	}
	for _, rt := range r.routes {
		compiled := &Route{
			Method:   rt.Method,
			Pattern:  rt.Pattern,
			segments: rt.segments,
			handler:  wrap(r.middleware, recoverHandler(r.logger, rt.handler)),
		}
		t.routes = append(t.routes, compiled)
		t.byLen[len(rt.segments)] = append(t.byLen[len(rt.segments)], compiled)
	}
	return t, nil
}

// Group はプレフィックス付きのスコープ
type Group struct {
	router *Router
	prefix []segment
}

// Handle はスコープ配下にルートを登録する
func (g *Group) Handle(method, pattern string, h Handler) {
	segs, err := parsePattern(pattern)
	if err != nil {
		g.router.errs = append(g.router.errs, err)
		return
	}
	g.router.add(method, join(g.prefix, segs), h)
}

// GET はスコープ配下にGETルートを登録する
func (g *Group) GET(pattern string, h Handler) { g.Handle(http.MethodGet, pattern, h) }

// POST はスコープ配下にPOSTルートを登録する
func (g *Group) POST(pattern string, h Handler) { g.Handle(http.MethodPost, pattern, h) }

// Group は入れ子のスコープを返す
func (g *Group) Group(prefix string) *Group {
	segs, err := parsePattern(prefix)
	if err != nil {
		g.router.errs = append(g.router.errs, fmt.Errorf("scope: %w", err))
	}
	return &Group{router: g.router, prefix: join(g.prefix, segs)}
}

func join(prefix, segs []segment) []segment {
	out := make([]segment, 0, len(prefix)+len(segs))
	out = append(out, prefix...)
	return append(out, segs...)
}

// checkParams はスコープ展開後にパラメータ名が重複していないか確認する
func checkParams(segs []segment) error {
	seen := make(map[string]bool)
	for _, s := range segs {
		if !s.isParam() {
			continue
		}
		if seen[s.param] {
			return fmt.Errorf("parameter %q declared twice", s.param)
		}
		seen[s.param] = true
	}
	return nil
}

func wrap(mw []Middleware, h Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
