package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"yobro/internal/router"
)

// 既定のトレーサー名
const defaultTracerName = "yobro"

// Tracing はリクエストごとにサーバースパンを作成する
// トレーサーはグローバルのTracerProviderから取得するため、未設定ならnoopになる
func Tracing(tracerName string) router.Middleware {
	if tracerName == "" {
		tracerName = defaultTracerName
	}
	tracer := otel.Tracer(tracerName)

	return func(next router.Handler) router.Handler {
		return func(req *router.Request) (router.Response, error) {
			ctx, span := tracer.Start(req.Context(), req.Method+" "+req.Route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", req.Method),
					attribute.String("http.route", req.Route),
					attribute.String("url.path", req.URL.Path),
				),
			)
			defer span.End()

			// 以降のハンドラはスパン付きのコンテキストを受け取る
			req.Request = req.WithContext(ctx)

			resp, err := next(req)
			status := statusOf(resp, err)
			span.SetAttributes(attribute.Int("http.response.status_code", status))

			if err != nil {
				span.RecordError(err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			return resp, err
		}
	}
}
