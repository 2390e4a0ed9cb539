package common

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dtnitsch/book-rank-monitor/models"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  https://www.yes24.com/product/goods/150701473  ", want: "https://www.yes24.com/product/goods/150701473"},
		{in: "[yes24](https://www.yes24.com/product/goods/1)", want: "https://www.yes24.com/product/goods/1"},
		{in: "https://product.kyobobook.co.kr/detail/S000217241525,", want: "https://product.kyobobook.co.kr/detail/S000217241525"},
		{in: "<https://www.aladin.co.kr/shop/wproduct.aspx?ItemId=1>", want: "https://www.aladin.co.kr/shop/wproduct.aspx?ItemId=1"},
	}
	for _, tt := range tests {
		if got := SanitizeURL(tt.in); got != tt.want {
			t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeSourceURLs(t *testing.T) {
	got, err := SanitizeSourceURLs(map[models.SourceID]string{
		models.SourceKyobo:  " https://product.kyobobook.co.kr/detail/S1 ",
		models.SourceYes24:  "http://127.0.0.1:8080/product/goods/1",
		models.SourceAladin: "",
	})
	if err != nil {
		t.Fatalf("SanitizeSourceURLs() error = %v", err)
	}
	want := map[models.SourceID]string{
		models.SourceKyobo: "https://product.kyobobook.co.kr/detail/S1",
		models.SourceYes24: "http://127.0.0.1:8080/product/goods/1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SanitizeSourceURLs() mismatch (-want +got):\n%s", diff)
	}

	_, err = SanitizeSourceURLs(map[models.SourceID]string{
		models.SourceKyobo: "ftp://example.com/file",
		models.SourceYes24: "not a url",
	})
	if err == nil {
		t.Fatal("SanitizeSourceURLs() accepted invalid URLs")
	}
	for _, id := range []string{"kyobobook", "yes24"} {
		if !strings.Contains(err.Error(), id) {
			t.Errorf("error %q does not name %s", err, id)
		}
	}
}
