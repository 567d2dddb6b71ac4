package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type teapotError struct{}

func (teapotError) Error() string   { return "short and stout" }
func (teapotError) StatusCode() int { return http.StatusTeapot }

func TestMap(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"ルート無し", ErrRouteNotFound, http.StatusNotFound, "not_found"},
		{"ラップされたルート無し", fmt.Errorf("dispatch: %w", ErrRouteNotFound), http.StatusNotFound, "not_found"},
		{"メソッド不一致", &MethodNotAllowedError{Method: "HEAD", Allowed: []string{"GET"}}, http.StatusMethodNotAllowed, "method_not_allowed"},
		{"必須フィールド欠落", Missing("name"), http.StatusBadRequest, "missing"},
		{"型不一致", TypeMismatch("user_id", errors.New("bad")), http.StatusBadRequest, "type_mismatch"},
		{"解析失敗", Malformed(errors.New("eof")), http.StatusBadRequest, "malformed"},
		{"サイズ超過(既定)", TooLarge(10), http.StatusBadRequest, "too_large"},
		{"サイズ超過(上書き)", &ExtractionError{Kind: KindTooLarge, Status: http.StatusConflict}, http.StatusConflict, "too_large"},
		{"ドメインエラー", NewDomainError("boom"), http.StatusInternalServerError, "domain_error"},
		{"ステータス宣言付きドメインエラー", NewDomainError("gone").WithStatus(http.StatusGone), http.StatusGone, "domain_error"},
		{"独自StatusCoder", teapotError{}, http.StatusTeapot, "request_error"},
		{"想定外のエラー", errors.New("lock poisoned"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := Map(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantCode, body.Error)
			assert.Equal(t, tc.wantStatus, Status(tc.err))
		})
	}
}

func TestMapHidesInternalMessage(t *testing.T) {
	_, body := Map(errors.New("secret detail"))
	assert.NotContains(t, body.Message, "secret")
}

func TestExtractionErrorMessage(t *testing.T) {
	err := TypeMismatch("user_id", errors.New(`invalid syntax`))
	assert.Equal(t, `type_mismatch field "user_id": invalid syntax`, err.Error())
	assert.Equal(t, `missing field "name"`, Missing("name").Error())
}
