// Package router は、メソッドとパスパターンによるリクエストの振り分けを担当します。
//
// 責務:
//   - ルートの登録 (Handle/GET/POST) とスコープ (Group/Mount) の展開
//   - 起動時の曖昧な登録の検出
//   - 不変なルーティングテーブル (Table) による照合
//   - ハンドラ呼び出し境界でのpanic回復とエラーレスポンスへの変換
//
// 仕様:
//   - パターンはリテラルセグメントと {name} 形式のパラメータセグメントから成る
//   - セグメント数が一致し、リテラルが完全一致し、パラメータが空でないセグメントに一致するルートを探す
//   - パスに一致するルートが無い場合は404、パスには一致するがメソッドが無い場合は405
//   - 同じメソッドで複数のパターンが一致する場合、先頭から見て最初に異なる位置でリテラルを持つ方を優先する
package router
