// Package server は、HTTPサーバーとアプリケーションのルートを管理します。
//
// このパッケージは、ルーティングテーブルの組み立て、ハンドラの実装、
// リッスンソケットの用意とサーバーの起動・停止を担当します。
//
// 責務:
//   - ルート（/, /again, /api, /inc, /event, /extractor, /query, /json, /form, /error, /app, /api/test）の登録
//   - 共有カウンタ（state.Store）のハンドラへの受け渡し
//   - 引き継いだソケット、または新しくbindしたソケットでの待ち受け
//   - /metrics と /openapi.json の公開
//
// 仕様:
//   - ルーティングは internal/router のテーブルを使用
//   - 処理中のリクエストを待つグレースフルシャットダウンに対応
//   - SIGINT/SIGTERM またはコンテキストのキャンセルで停止
package server
