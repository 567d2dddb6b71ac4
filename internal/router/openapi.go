package router

import (
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPI はテーブルの内容からOpenAPI 3ドキュメントを生成する
// パラメータはすべて文字列として記述する
func (t *Table) OpenAPI(title, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   title,
			Version: version,
		},
		Paths: openapi3.NewPaths(),
	}

	for _, rt := range t.routes {
		item := doc.Paths.Value(rt.Pattern)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(rt.Pattern, item)
		}

		op := openapi3.NewOperation()
		op.OperationID = operationID(rt)
		for _, s := range rt.segments {
			if s.isParam() {
				op.AddParameter(openapi3.NewPathParameter(s.param).WithSchema(openapi3.NewStringSchema()))
			}
		}
		op.AddResponse(http.StatusOK, openapi3.NewResponse().WithDescription(http.StatusText(http.StatusOK)))
		item.SetOperation(rt.Method, op)
	}

	return doc
}

// operationID は "get_extractor_user_id_name" のような識別子を作る
func operationID(rt *Route) string {
	parts := []string{strings.ToLower(rt.Method)}
	for _, s := range rt.segments {
		name := s.literal
		if s.isParam() {
			name = s.param
		}
		parts = append(parts, strings.NewReplacer("-", "_", ".", "_").Replace(name))
	}
	if len(rt.segments) == 0 {
		parts = append(parts, "root")
	}
	return strings.Join(parts, "_")
}
