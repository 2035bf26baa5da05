package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestErrorAlert(t *testing.T) {
	tests := []struct {
		name    string
		message string
		action  string
		code    string
		want    []string
		notWant []string
	}{
		{
			name:    "full",
			message: "File is too large",
			action:  "Upload a smaller file",
			code:    "FILE001",
			want:    []string{"File is too large", "Upload a smaller file", "FILE001", `role="alert"`},
		},
		{
			name:    "no action",
			message: "Something went wrong",
			code:    "ERR000",
			want:    []string{"Something went wrong"},
			notWant: []string{"alert-action"},
		},
		{
			name:    "escapes markup",
			message: `<script>alert("x")</script>`,
			want:    []string{"&lt;script&gt;"},
			notWant: []string{"<script>", "alert-code"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, ErrorAlert(tt.message, tt.action, tt.code))
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q missing %q", out, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(out, nw) {
					t.Errorf("output %q unexpectedly contains %q", out, nw)
				}
			}
		})
	}
}

func TestDatasetStatus(t *testing.T) {
	out := render(t, DatasetStatus("stock & spares.csv", 42, 7))
	if !strings.Contains(out, "stock &amp; spares.csv") {
		t.Errorf("file name not escaped: %q", out)
	}
	if !strings.Contains(out, "42 rows") || !strings.Contains(out, `data-version="7"`) {
		t.Errorf("output = %q", out)
	}

	empty := render(t, DatasetStatus("", 0, 8))
	if !strings.Contains(empty, "No inventory loaded") {
		t.Errorf("empty output = %q", empty)
	}
}
