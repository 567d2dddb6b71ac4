package httperr

import (
	"errors"
	"net/http"
)

// Response はエラーレスポンスのボディ
type Response struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Map はエラーをHTTPステータスとレスポンスボディに変換する
func Map(err error) (int, Response) {
	if errors.Is(err, ErrRouteNotFound) {
		return http.StatusNotFound, Response{Error: "not_found", Message: "no route matches the request path"}
	}

	var mna *MethodNotAllowedError
	if errors.As(err, &mna) {
		return mna.StatusCode(), Response{Error: "method_not_allowed", Message: mna.Error()}
	}

	var ex *ExtractionError
	if errors.As(err, &ex) {
		return ex.StatusCode(), Response{Error: ex.Kind.String(), Message: ex.Error()}
	}

	var de *DomainError
	if errors.As(err, &de) {
		return de.StatusCode(), Response{Error: "domain_error", Message: de.Message}
	}

	// 独自にステータスを宣言するエラー
	var sc StatusCoder
	if errors.As(err, &sc) {
		status := sc.StatusCode()
		return status, Response{Error: codeFor(status), Message: err.Error()}
	}

	// 想定外のエラーは内容を公開しない
	return http.StatusInternalServerError, Response{Error: "internal", Message: "internal server error"}
}

// Status はエラーに対応するHTTPステータスのみを返す
func Status(err error) int {
	status, _ := Map(err)
	return status
}

func codeFor(status int) string {
	if status >= 500 {
		return "internal"
	}
	return "request_error"
}
