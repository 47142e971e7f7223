// Package report renders already-computed movements and summaries as CSV or PDF files.
package report

import (
	"fmt"
	"time"
)

const (
	ContentTypeCSV = "text/csv"
	ContentTypePDF = "application/pdf"

	dateLayout = "2006-01-02"
)

// File is a rendered export.
type File struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content"`
}

func filename(kind, ext string, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", kind, at.Format("20060102_150405"), ext)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
