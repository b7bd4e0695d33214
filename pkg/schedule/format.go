package schedule

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Sternrassler/revisit-scheduler/pkg/revisit"
)

// FormatBatch writes a batch in the daily file format. Questions are numbered
// by their position in the whole shuffled sequence, not per day.
func FormatBatch(w io.Writer, b Batch) error {
	return formatItems(w, b.Offset, b.Items)
}

// FormatDigest writes items as one flat list numbered from 1, the layout
// used for a single notification message.
func FormatDigest(w io.Writer, items []revisit.Item) error {
	return formatItems(w, 0, items)
}

func formatItems(w io.Writer, offset int, items []revisit.Item) error {
	bw := bufio.NewWriter(w)
	for i, item := range items {
		fmt.Fprintf(bw, "Question %d:\n", offset+i+1)
		fmt.Fprintf(bw, "Date: %s\n", item.Date)
		fmt.Fprintf(bw, "Problem Title: %s\n", item.Title)
		fmt.Fprintf(bw, "URL: %s\n\n", item.URL)
	}
	return bw.Flush()
}
