package serper

import "testing"

func TestFlattenSnippet(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Karma is action", "Karma is action"},
		{"highlight tags", "<b>Karma</b> is <em>action</em>", "Karma is action"},
		{"entities", "duty &amp; devotion", "duty & devotion"},
		{"extra whitespace", "  karma \n  yoga  ", "karma yoga"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlattenSnippet(tt.in); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
