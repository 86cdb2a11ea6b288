package output_test

import (
	"bytes"
	"testing"
	"time"

	"taskman/internal/output"
	"taskman/internal/service"
	"taskman/internal/testutil"
)

func TestFormatTask(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task service.Task
		want string
	}{
		{
			name: "open",
			task: service.Task{ID: 1, Title: "Buy milk", CreatedAt: created},
			want: "   1  [ ] Buy milk\n",
		},
		{
			name: "completed",
			task: service.Task{ID: 12, Title: "Buy eggs", IsCompleted: true, CreatedAt: created},
			want: "  12  [x] Buy eggs\n",
		},
		{
			name: "empty title",
			task: service.Task{ID: 3, Title: "   ", CreatedAt: created},
			want: "   3  [ ] (untitled)\n",
		},
		{
			name: "multiline title",
			task: service.Task{ID: 4, Title: "line one\nline two", CreatedAt: created},
			want: "   4  [ ] line one line two\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			output.FormatTask(&buf, tt.task)
			if buf.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestFormatTaskDetail(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC)
	desc := "semi-skimmed, two bottles"

	task := service.Task{
		ID:          7,
		Title:       "Buy milk",
		Description: &desc,
		IsCompleted: true,
		CreatedAt:   created,
		UpdatedAt:   &updated,
		UserID:      1,
	}

	var buf bytes.Buffer
	output.FormatTaskDetail(&buf, task)
	testutil.GoldenString(t, "task_detail", buf.String())
}

func TestFormatTaskDetail_Minimal(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	task := service.Task{
		ID:        1,
		Title:     "Buy milk",
		CreatedAt: created,
		UserID:    1,
	}

	var buf bytes.Buffer
	output.FormatTaskDetail(&buf, task)

	want := "id:          1\n" +
		"title:       Buy milk\n" +
		"status:      open\n" +
		"created:     2026-08-01 12:00\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatProfile(t *testing.T) {
	var buf bytes.Buffer
	output.FormatProfile(&buf, service.Profile{ID: 1, Username: "alice", Email: "alice@example.com"})
	if buf.String() != "alice <alice@example.com>\n" {
		t.Errorf("expected profile line, got %q", buf.String())
	}
}
