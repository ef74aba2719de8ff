package anthropic

import "testing"

func TestMessageResponseText(t *testing.T) {
	r := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "hello"},
		{Type: "tool_use", Text: "ignored"},
		{Type: "text", Text: " world"},
	}}
	if got := r.Text(); got != "hello world" {
		t.Fatalf("Text() = %q", got)
	}
}

func TestMessageResponseText_Empty(t *testing.T) {
	r := &MessageResponse{}
	if got := r.Text(); got != "" {
		t.Fatalf("Text() = %q, want empty", got)
	}
}
