package item

import (
	"net/http/httptest"
	"testing"
)

func TestParseQueryParams(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    QueryParams
		wantErr bool
	}{
		{"defaults", "/items", QueryParams{Page: 1, PerPage: 20}, false},
		{"explicit paging", "/items?page=3&per_page=50", QueryParams{Page: 3, PerPage: 50}, false},
		{"per_page clamped", "/items?per_page=500", QueryParams{Page: 1, PerPage: 100}, false},
		{"search query", "/items?q=hello+world", QueryParams{Page: 1, PerPage: 20, Search: "hello world"}, false},
		{"zero page rejected", "/items?page=0", QueryParams{}, true},
		{"negative per_page rejected", "/items?per_page=-1", QueryParams{}, true},
		{"non-numeric page rejected", "/items?page=abc", QueryParams{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			got, err := ParseQueryParams(r)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQueryParams: %v", err)
			}
			if got != tt.want {
				t.Errorf("params = %+v, want %+v", got, tt.want)
			}
		})
	}
}
