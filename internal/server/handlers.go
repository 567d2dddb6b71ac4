package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"yobro/internal/httperr"
	"yobro/internal/router"
	"yobro/internal/state"
)

// APIResponse は /api のレスポンス
type APIResponse struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
}

// Event は /event で受け取るイベント
type Event struct {
	Timestamp float64  `json:"timestamp"`
	Kind      string   `json:"kind" binding:"required"`
	Tags      []string `json:"tags"`
}

// UserPath は /extractor/{user_id}/{name} のパスパラメータ
type UserPath struct {
	UserID uint32 `path:"user_id"`
	Name   string `path:"name"`
}

// NameQuery は /query のクエリパラメータ
type NameQuery struct {
	Name string `query:"name"`
}

// NameBody は /json で受け取るボディ
type NameBody struct {
	Name string `json:"name" binding:"required"`
}

// FormData は /form で受け取るフォーム
type FormData struct {
	Username string `form:"username"`
	Number   int    `form:"number"`
}

// Handlers はルートごとのハンドラを実装する
type Handlers struct {
	state  *state.Store
	logger *slog.Logger
	newID  func() uuid.UUID
}

// NewHandlers は共有状態を参照するハンドラ群を作成する
func NewHandlers(st *state.Store, logger *slog.Logger) *Handlers {
	return &Handlers{
		state:  st,
		logger: logger,
		newID:  uuid.New,
	}
}

// Index はルートパスのハンドラ
func (h *Handlers) Index(*router.Request) (router.Response, error) {
	return router.Text(http.StatusOK, "Yo Bro"), nil
}

// Again は /again のハンドラ
func (h *Handlers) Again(*router.Request) (router.Response, error) {
	return router.Text(http.StatusOK, "Yo again!"), nil
}

// API はアプリ名をJSONで返す
func (h *Handlers) API(*router.Request) (router.Response, error) {
	return router.JSON(http.StatusOK, APIResponse{Name: h.state.Name(), Success: true}), nil
}

// Inc は共有カウンタを1増やして新しい値を返す
func (h *Handlers) Inc(*router.Request) (router.Response, error) {
	n, err := h.state.Increment()
	if err != nil {
		return router.Response{}, err
	}
	return router.Text(http.StatusOK, "Count num: %d", n), nil
}

// Event はイベントを受け付けてIDを払い出す
func (h *Handlers) Event(req *router.Request, ev Event) (router.Response, error) {
	id := h.newID()
	h.logger.DebugContext(req.Context(), "イベントを受信しました", "id", id.String(), "kind", ev.Kind, "tags", ev.Tags)
	return router.Text(http.StatusOK, "got event %s", id), nil
}

// Extractor はパスパラメータをそのまま返す
func (h *Handlers) Extractor(_ *router.Request, p UserPath) (router.Response, error) {
	return router.Text(http.StatusOK, "%d %s", p.UserID, p.Name), nil
}

// Query はクエリの名前に挨拶する
func (h *Handlers) Query(_ *router.Request, q NameQuery) (router.Response, error) {
	return router.Text(http.StatusOK, "Welcome: %s", q.Name), nil
}

// JSON はJSONボディの名前に挨拶する
func (h *Handlers) JSON(_ *router.Request, b NameBody) (router.Response, error) {
	return router.Text(http.StatusOK, "Welcome: %s", b.Name), nil
}

// Form はフォームの内容に挨拶する
func (h *Handlers) Form(_ *router.Request, f FormData) (router.Response, error) {
	return router.Text(http.StatusOK, "Welcome %s -> %d!", f.Username, f.Number), nil
}

// Error は常にドメインエラーを返す
func (h *Handlers) Error(*router.Request) (router.Response, error) {
	return router.Response{}, httperr.NewDomainError("my error: %s", "test")
}

// App は /app スコープのルート
func (h *Handlers) App(*router.Request) (router.Response, error) {
	return router.Text(http.StatusOK, "app"), nil
}
