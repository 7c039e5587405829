package ccn

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrEmptyName 表示无法从输入中恢复出任何名称分量。
var ErrEmptyName = errors.New("content name has no components")

// Name 是有序的不透明字符串分量序列，逐分量、按顺序比较，构造后不可变。
type Name struct {
	components []string
	key        string
}

// NewName 复制传入分量构造名称，调用方之后修改切片不会影响 Name。
func NewName(components ...string) Name {
	comps := append([]string(nil), components...)
	return Name{components: comps, key: buildKey(comps)}
}

// ParseName 解析 "/video/3" 形式的 URI，每个分量按 URL path 规则反转义。
func ParseName(uri string) (Name, error) {
	trimmed := strings.TrimSpace(uri)
	if !strings.HasPrefix(trimmed, "/") {
		return Name{}, fmt.Errorf("content name %q must start with /", uri)
	}
	var comps []string
	for _, raw := range strings.Split(trimmed[1:], "/") {
		if raw == "" {
			continue
		}
		comp, err := url.PathUnescape(raw)
		if err != nil {
			return Name{}, fmt.Errorf("content name %q: %w", uri, err)
		}
		comps = append(comps, comp)
	}
	if len(comps) == 0 {
		return Name{}, ErrEmptyName
	}
	return NewName(comps...), nil
}

// MustParseName 在解析失败时 panic，仅用于常量名称与测试。
func MustParseName(uri string) Name {
	n, err := ParseName(uri)
	if err != nil {
		panic(err)
	}
	return n
}

// Len 返回分量个数。
func (n Name) Len() int {
	return len(n.components)
}

// At 返回第 i 个分量。
func (n Name) At(i int) string {
	return n.components[i]
}

// Components 返回分量副本。
func (n Name) Components() []string {
	return append([]string(nil), n.components...)
}

// Append 返回追加分量后的新名称，原名称保持不变。
func (n Name) Append(components ...string) Name {
	comps := make([]string, 0, len(n.components)+len(components))
	comps = append(comps, n.components...)
	comps = append(comps, components...)
	return Name{components: comps, key: buildKey(comps)}
}

// IsZero 表示名称未初始化或没有任何分量。
func (n Name) IsZero() bool {
	return len(n.components) == 0
}

// Equal 逐分量比较两个名称。
func (n Name) Equal(other Name) bool {
	if len(n.components) != len(other.components) {
		return false
	}
	for i := range n.components {
		if n.components[i] != other.components[i] {
			return false
		}
	}
	return true
}

// Key 返回 CS/PIT 使用的规范键。分量内的 "/" 会被转义，
// 因此 ["a/b"] 与 ["a","b"] 不会产生相同的键。
func (n Name) Key() string {
	if n.key == "" {
		return buildKey(n.components)
	}
	return n.key
}

func (n Name) String() string {
	return n.Key()
}

func buildKey(comps []string) string {
	if len(comps) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, c := range comps {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(c))
	}
	return b.String()
}
