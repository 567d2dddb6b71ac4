package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yobro/internal/extract"
	"yobro/internal/middleware"
	"yobro/internal/router"
)

// eventLimit は /event のボディ上限
const eventLimit = 64 << 10

// buildRoutes はアプリケーションのルーティングテーブルを組み立てる
func (s *Server) buildRoutes(h *Handlers) (*router.Table, error) {
	r := router.New(router.WithLogger(s.logger))
	r.Use(middleware.Tracing(""), middleware.Logging(s.logger))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware())
	}

	r.GET("/", h.Index)
	r.GET("/again", h.Again)
	r.GET("/api", h.API)
	r.GET("/inc", h.Inc)
	r.GET("/error", h.Error)

	r.POST("/event", extract.With(extract.Body[Event]{
		Format: extract.FormatJSON,
		Limit:  eventLimit,
	}, h.Event))

	r.GET("/extractor/{user_id}/{name}", extract.With(extract.Path[UserPath]{}, h.Extractor))
	r.GET("/query", extract.With(extract.Query[NameQuery]{}, h.Query))

	// /json は上限超過時のステータスを設定で上書きする
	r.POST("/json", extract.With(extract.Body[NameBody]{
		Format:      extract.FormatJSON,
		Limit:       s.config.App.JSONLimit,
		ErrorStatus: s.config.App.JSONLimitStatus,
	}, h.JSON))

	r.POST("/form", extract.With(extract.Body[FormData]{Format: extract.FormatForm}, h.Form))

	app := r.Group("/app")
	app.GET("", h.App)

	api := router.New(router.WithLogger(s.logger))
	api.GET("/test", h.API)
	r.Mount("/api", api)

	r.GET("/openapi.json", func(*router.Request) (router.Response, error) {
		return router.JSON(http.StatusOK, s.table.OpenAPI(s.config.App.Name, apiVersion)), nil
	})
	if s.registry != nil {
		r.GET("/metrics", router.FromHTTP(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	return r.Build()
}
