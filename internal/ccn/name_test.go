package ccn

import "testing"

func TestParseNameSplitsComponents(t *testing.T) {
	n, err := ParseName("/video/3")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if n.Len() != 2 || n.At(0) != "video" || n.At(1) != "3" {
		t.Fatalf("分量不符: %v", n.Components())
	}
	if n.Key() != "/video/3" {
		t.Fatalf("规范键不符: %s", n.Key())
	}
}

func TestParseNameRejectsEmpty(t *testing.T) {
	for _, raw := range []string{"", "/", "video/3", "//"} {
		if _, err := ParseName(raw); err == nil {
			t.Fatalf("%q 应解析失败", raw)
		}
	}
}

func TestNameKeyIsComponentWise(t *testing.T) {
	joined := NewName("a/b")
	split := NewName("a", "b")
	if joined.Equal(split) {
		t.Fatalf("不同分量序列不应相等")
	}
	if joined.Key() == split.Key() {
		t.Fatalf("规范键不应冲突: %s", joined.Key())
	}
	parsed, err := ParseName(joined.Key())
	if err != nil {
		t.Fatalf("解析转义键失败: %v", err)
	}
	if !parsed.Equal(joined) {
		t.Fatalf("转义键应还原原名称，得到 %v", parsed.Components())
	}
}

func TestNameOrderSensitive(t *testing.T) {
	if NewName("video", "3").Equal(NewName("3", "video")) {
		t.Fatalf("名称比较应区分顺序")
	}
}

func TestNameIsImmutable(t *testing.T) {
	comps := []string{"video", "1"}
	n := NewName(comps...)
	comps[1] = "2"
	if n.At(1) != "1" {
		t.Fatalf("修改原切片不应影响名称")
	}
	out := n.Components()
	out[0] = "audio"
	if n.At(0) != "video" {
		t.Fatalf("修改 Components 返回值不应影响名称")
	}
	appended := n.Append("seg")
	if n.Len() != 2 || appended.Key() != "/video/1/seg" {
		t.Fatalf("Append 不应修改原名称: %s %s", n, appended)
	}
}
