package agent

import "testing"

func TestExtractName(t *testing.T) {
	cases := []struct {
		text string
		want string
		ok   bool
	}{
		{"我叫小明", "小明", true},
		{"我是阿美", "阿美", true},
		{"我的名字是王大明", "王大明", true},
		{"你好，我叫小華。", "小華", true},
		{"我叫什麼名字", "", false},
		{"我叫甚麼", "", false},
		{"我是不知道啦", "", false},
		{"我忘了名字", "", false},
		{"今天天氣真好", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ExtractName(tc.text)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ExtractName(%q) = (%q, %v), want (%q, %v)", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLooksLikeNameRejectsSentences(t *testing.T) {
	if looksLikeName("王大明，住在台北") {
		t.Fatalf("long candidate with sentence punctuation should be rejected")
	}
	if !looksLikeName("小明") {
		t.Fatalf("plain short name should be accepted")
	}
	if looksLikeName("一二三四五六七八九十一二三") {
		t.Fatalf("13-rune candidate should be rejected")
	}
}
