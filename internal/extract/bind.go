package extract

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/oapi-codegen/runtime"

	"yobro/internal/httperr"
)

// parseURLEncoded は application/x-www-form-urlencoded 形式を解析する
// 区切りは "&" のみで、";" は値の一部として扱う
func parseURLEncoded(s string) (url.Values, error) {
	values := make(url.Values)
	for s != "" {
		var pair string
		pair, s, _ = strings.Cut(s, "&")
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", key, err)
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %q: %w", k, err)
		}
		values[k] = append(values[k], v)
	}
	return values, nil
}

// bindValues は values を構造体ポインタ dst のフィールドへ束縛する
//
// フィールド名は tag で指定したタグ（無ければフィールド名）で引く。
// ポインタ・スライスのフィールドと ",omitempty" 付きのタグは省略可能、それ以外は必須。
func bindValues(dst any, tag string, values map[string][]string) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("extract: %T is not a pointer to struct", dst)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}

		raw := values[name]
		if len(raw) == 0 {
			if isOptional(f, opts) {
				continue
			}
			return httperr.Missing(name)
		}

		if err := setField(rv.Field(i), raw); err != nil {
			return httperr.TypeMismatch(name, err)
		}
	}
	return nil
}

func isOptional(f reflect.StructField, opts string) bool {
	switch f.Type.Kind() {
	case reflect.Pointer, reflect.Slice:
		return true
	}
	for _, o := range strings.Split(opts, ",") {
		if o == "omitempty" {
			return true
		}
	}
	return false
}

// setField は文字列値をフィールドの型に変換して設定する
func setField(fv reflect.Value, raw []string) error {
	if fv.Kind() == reflect.Slice {
		s := reflect.MakeSlice(fv.Type(), len(raw), len(raw))
		for i, r := range raw {
			if err := runtime.BindStringToObject(r, s.Index(i).Addr().Interface()); err != nil {
				return err
			}
		}
		fv.Set(s)
		return nil
	}
	return runtime.BindStringToObject(raw[0], fv.Addr().Interface())
}
