package headless

import (
	"testing"
)

func TestParseHTML(t *testing.T) {
	t.Parallel()

	doc, err := parseHTML(`<html><body><div class="question-discussion-header">hi</div></body></html>`)
	if err != nil {
		t.Fatalf("parseHTML: %v", err)
	}
	if got := doc.Find(".question-discussion-header").Text(); got != "hi" {
		t.Fatalf("unexpected selection text %q", got)
	}
}
