// Package middleware は、ルーティングテーブルの全ルートに適用する共通処理を提供します。
//
//   - Logging: 1リクエスト1行の構造化ログ
//   - Metrics: Prometheusのリクエスト数・処理時間・抽出エラー数
//   - Tracing: OpenTelemetryのサーバースパン
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"yobro/internal/httperr"
	"yobro/internal/router"
)

// statusOf はハンドラの結果から最終的なHTTPステータスを求める
func statusOf(resp router.Response, err error) int {
	if err != nil {
		return httperr.Status(err)
	}
	if resp.Status == 0 {
		return http.StatusOK
	}
	return resp.Status
}

// Logging はリクエストごとにメソッド・ルート・ステータス・処理時間を記録する
func Logging(logger *slog.Logger) router.Middleware {
	return func(next router.Handler) router.Handler {
		return func(req *router.Request) (router.Response, error) {
			start := time.Now()
			resp, err := next(req)
			status := statusOf(resp, err)

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("route", req.Route),
				slog.String("path", req.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			logger.LogAttrs(req.Context(), level, "リクエストを処理しました", attrs...)

			return resp, err
		}
	}
}
