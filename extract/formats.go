// Package extract converts heterogeneous document formats into plain text for
// downstream chunking and series mining.
package extract

import (
	"path/filepath"
	"strings"
)

// DocumentFormat enumerates supported document payload formats.
type DocumentFormat string

const (
	// FormatUnknown represents an unsupported or undetected format.
	FormatUnknown DocumentFormat = ""
	// FormatPDF represents PDF documents.
	FormatPDF DocumentFormat = "pdf"
	// FormatDocx represents Word documents.
	FormatDocx DocumentFormat = "docx"
	// FormatXlsx represents Excel workbooks.
	FormatXlsx DocumentFormat = "xlsx"
	// FormatCSV represents comma separated values documents.
	FormatCSV DocumentFormat = "csv"
	// FormatText represents plain text and Markdown documents.
	FormatText DocumentFormat = "text"
)

// DetectFormat infers a document format from the provided path's extension.
func DetectFormat(path string) DocumentFormat {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDocx
	case ".xlsx":
		return FormatXlsx
	case ".csv":
		return FormatCSV
	case ".txt", ".md", ".markdown":
		return FormatText
	default:
		return FormatUnknown
	}
}
