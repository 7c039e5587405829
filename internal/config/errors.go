package config

import "fmt"

// FieldError 提供字段路径与错误原因，便于 CLI 向用户反馈。
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// newFieldError 创建包含字段路径与原因的 error，便于 CLI 定位。
func newFieldError(field, reason string) error {
	return FieldError{Field: field, Reason: reason}
}

// nodeField 拼接节点级字段路径，输出 Edge[xxx].Field 形式。
func nodeField(section, name, field string) string {
	if name == "" {
		return fmt.Sprintf("%s[].%s", section, field)
	}
	return fmt.Sprintf("%s[%s].%s", section, name, field)
}

// indexField 用于没有名称的表数组，输出 Bearer[#0].Field 形式。
func indexField(section string, idx int, field string) string {
	return fmt.Sprintf("%s[#%d].%s", section, idx, field)
}
