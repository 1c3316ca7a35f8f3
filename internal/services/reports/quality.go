package reports

import (
	"fmt"
	"io"

	"vaultaudit/internal/services/analyze/domain"
)

// DataQuality is the run accounting block every report prints so a reader
// can judge how much of the corpus actually contributed.
type DataQuality struct {
	Stats      domain.RunStats
	FileErrors []domain.FileError
}

// NewDataQuality builds the block from a finished run
func NewDataQuality(stats domain.RunStats, ferrs []domain.FileError) DataQuality {
	return DataQuality{Stats: stats, FileErrors: ferrs}
}

// Write renders the data-quality block
func (q DataQuality) Write(w io.Writer) {
	section(w, "DATA QUALITY")
	fmt.Fprintf(w, "Files processed:        %s\n", count(q.Stats.Files))
	if q.Stats.FailedFiles > 0 {
		fmt.Fprintf(w, "Files failed:           %s\n", count(q.Stats.FailedFiles))
		for _, fe := range q.FileErrors {
			fmt.Fprintf(w, "  - %s: %v\n", fe.Path, fe.Err)
		}
	}
	fmt.Fprintf(w, "Lines read:             %s\n", count(q.Stats.Lines))
	fmt.Fprintf(w, "Events parsed:          %s\n", count(q.Stats.Events))
	fmt.Fprintf(w, "Parse failures:         %s (%.2f%%)\n",
		count(q.Stats.Failures), pct(q.Stats.Failures, q.Stats.Lines))
	if q.Stats.Conflicts > 0 {
		fmt.Fprintf(w, "Attribution conflicts:  %s\n", count(q.Stats.Conflicts))
	}
}
