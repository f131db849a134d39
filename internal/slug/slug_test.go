package slug

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Posts", "posts"},
		{"spaces and punctuation", "Blog Posts!! ", "blog_posts"},
		{"hyphens collapse", "my--fancy--name", "my_fancy_name"},
		{"mixed separators", "a - b  c", "a_b_c"},
		{"accents removed not transliterated", "Relatório Mensal", "relatrio_mensal"},
		{"leading trailing trimmed", "  --hello--  ", "hello"},
		{"digits kept", "Top 10 Lists", "top_10_lists"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"symbols only", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.in); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateIdempotent(t *testing.T) {
	inputs := []string{"Blog Posts!! ", "A - B", "posts_3", "Relatório", "x__y"}
	for _, in := range inputs {
		once := Generate(in)
		twice := Generate(once)
		if once != twice {
			t.Errorf("Generate not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}
