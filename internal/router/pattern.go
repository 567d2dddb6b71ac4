package router

import (
	"fmt"
	"net/url"
	"strings"
)

// segment はパターンの1セグメント
type segment struct {
	literal string
	param   string // パラメータ名。空ならリテラル
}

func (s segment) isParam() bool { return s.param != "" }

func (s segment) String() string {
	if s.isParam() {
		return "{" + s.param + "}"
	}
	return s.literal
}

// parsePattern はパスパターンをセグメント列に変換する
// "" と "/" はセグメント0個（スコープのルート）として扱う
func parsePattern(pattern string) ([]segment, error) {
	if pattern == "" || pattern == "/" {
		return nil, nil
	}
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("pattern %q must begin with '/'", pattern)
	}

	parts := strings.Split(strings.TrimSuffix(pattern[1:], "/"), "/")
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]bool)

	for _, part := range parts {
		switch {
		case part == "":
			return nil, fmt.Errorf("pattern %q contains an empty segment", pattern)
		case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
			name := part[1 : len(part)-1]
			if name == "" || strings.ContainsAny(name, "{}") {
				return nil, fmt.Errorf("pattern %q has an invalid parameter %q", pattern, part)
			}
			if seen[name] {
				return nil, fmt.Errorf("pattern %q declares parameter %q twice", pattern, name)
			}
			seen[name] = true
			segs = append(segs, segment{param: name})
		case strings.ContainsAny(part, "{}"):
			return nil, fmt.Errorf("pattern %q has a malformed segment %q", pattern, part)
		default:
			segs = append(segs, segment{literal: part})
		}
	}
	return segs, nil
}

// formatPattern はセグメント列をパターン文字列に戻す
func formatPattern(segs []segment) string {
	if len(segs) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range segs {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

// splitPath はエスケープされたままのリクエストパスをセグメントに分割し、各セグメントをデコードする
// %2F はセグメント内の "/" として扱われる
// 末尾のスラッシュは空セグメントとして残るため、どのパターンにも一致しない
func splitPath(path string) ([]string, error) {
	if path == "" || path == "/" {
		return nil, nil
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, p := range parts {
		decoded, err := url.PathUnescape(p)
		if err != nil {
			return nil, err
		}
		parts[i] = decoded
	}
	return parts, nil
}

// sameShape は2つのパターンが同じ構造（セグメント数・リテラル位置と値）か判定する
func sameShape(a, b []segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].isParam() != b[i].isParam() {
			return false
		}
		if !a[i].isParam() && a[i].literal != b[i].literal {
			return false
		}
	}
	return true
}
