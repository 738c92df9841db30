package id_test

import (
	"testing"

	"github.com/go-arcade/huddle/pkg/id"
)

func TestGetXid(t *testing.T) {
	got := id.GetXid()

	// XID 应该是 20 个字符的字符串
	if len(got) != 20 {
		t.Errorf("GetXid() length = %d, want 20", len(got))
	}

	// 两次生成应该不同
	if got2 := id.GetXid(); got == got2 {
		t.Errorf("GetXid() generated duplicate IDs: %s", got)
	}
}
