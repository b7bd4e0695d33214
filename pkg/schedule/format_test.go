package schedule

import (
	"bytes"
	"testing"
	"time"

	"github.com/Sternrassler/revisit-scheduler/pkg/revisit"
)

func TestFormatBatch(t *testing.T) {
	b := Batch{
		Date:   time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		Offset: 10,
		Items: []revisit.Item{
			{Date: "2024-05-01", Title: "Two Sum", URL: "https://www.notion.so/a"},
			{URL: "https://www.notion.so/b"},
		},
	}

	var buf bytes.Buffer
	if err := FormatBatch(&buf, b); err != nil {
		t.Fatalf("FormatBatch() error = %v", err)
	}

	want := "Question 11:\n" +
		"Date: 2024-05-01\n" +
		"Problem Title: Two Sum\n" +
		"URL: https://www.notion.so/a\n" +
		"\n" +
		"Question 12:\n" +
		"Date: \n" +
		"Problem Title: \n" +
		"URL: https://www.notion.so/b\n" +
		"\n"

	if got := buf.String(); got != want {
		t.Errorf("FormatBatch() =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatDigest(t *testing.T) {
	items := []revisit.Item{
		{Date: "2024-05-01", Title: "A", URL: "u1"},
		{Date: "2024-05-02", Title: "B", URL: "u2"},
	}

	var buf bytes.Buffer
	if err := FormatDigest(&buf, items); err != nil {
		t.Fatalf("FormatDigest() error = %v", err)
	}

	want := "Question 1:\nDate: 2024-05-01\nProblem Title: A\nURL: u1\n\n" +
		"Question 2:\nDate: 2024-05-02\nProblem Title: B\nURL: u2\n\n"
	if got := buf.String(); got != want {
		t.Errorf("FormatDigest() = %q, want %q", got, want)
	}
}

func TestFormatDigest_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatDigest(&buf, nil); err != nil {
		t.Fatalf("FormatDigest() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("FormatDigest(nil) wrote %q", buf.String())
	}
}
