package milvus

import "testing"

func TestTagFilterExpr_SingleTag(t *testing.T) {
	got := TagFilterExpr([]string{"docker"})
	want := `tags like '%"docker"%'`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTagFilterExpr_MultipleTags(t *testing.T) {
	got := TagFilterExpr([]string{"docker", "networking"})
	want := `tags like '%"docker"%' or tags like '%"networking"%'`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTagFilterExpr_Empty(t *testing.T) {
	if got := TagFilterExpr(nil); got != "" {
		t.Errorf("expected empty expr, got %q", got)
	}
	if got := TagFilterExpr([]string{"", "  "}); got != "" {
		t.Errorf("expected empty expr for blank tags, got %q", got)
	}
}

func TestTagFilterExpr_StripsQuotes(t *testing.T) {
	got := TagFilterExpr([]string{`do'ck"er`})
	want := `tags like '%"docker"%'`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTagFilterExpr_TrimsWhitespace(t *testing.T) {
	got := TagFilterExpr([]string{" tls "})
	want := `tags like '%"tls"%'`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
