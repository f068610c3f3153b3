// CLAUDE:SUMMARY Static registry mapping format ids to extension, label, and modification strategy.
// Package format is the single source of truth for every file format the
// export pipeline claims to support. All other components consult this
// registry instead of keeping their own per-format tables.
package format

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Strategy is the handling category that determines which applier may
// modify a format. Immutable once a descriptor is registered.
type Strategy string

const (
	// DirectBinary formats are zipped-markup packages whose main content
	// stream can be rewritten in place (docx, odt, ...).
	DirectBinary Strategy = "direct_binary"
	// TextBased formats are edited with literal find/replace on raw content.
	TextBased Strategy = "text_based"
	// ExtractModifyExport formats cannot be re-anchored reliably; they are
	// extracted, rewritten as plain text, and re-rendered from scratch.
	ExtractModifyExport Strategy = "extract_modify_export"
	// ImageOnly formats can be produced but never modified in place.
	ImageOnly Strategy = "image_only"
	// ArchiveOnly formats are produced as containers only.
	ArchiveOnly Strategy = "archive_only"
	// NotModifiable formats always reject modification requests.
	NotModifiable Strategy = "not_modifiable"
)

// Descriptor describes one supported format.
type Descriptor struct {
	ID        string   `json:"id"`
	Extension string   `json:"extension"`
	Label     string   `json:"label"`
	Strategy  Strategy `json:"strategy"`
}

// ErrUnknownFormat is returned by Describe for unregistered format ids.
var ErrUnknownFormat = errors.New("unknown format")

// registry holds one descriptor per format id.
var registry = map[string]Descriptor{
	// Office documents.
	"pdf":  {ID: "pdf", Extension: ".pdf", Label: "PDF Document", Strategy: ExtractModifyExport},
	"docx": {ID: "docx", Extension: ".docx", Label: "Word Document", Strategy: DirectBinary},
	"doc":  {ID: "doc", Extension: ".doc", Label: "Word 97-2003 Document", Strategy: ExtractModifyExport},
	"xlsx": {ID: "xlsx", Extension: ".xlsx", Label: "Excel Workbook", Strategy: DirectBinary},
	"xls":  {ID: "xls", Extension: ".xls", Label: "Excel 97-2003 Workbook", Strategy: ExtractModifyExport},
	"pptx": {ID: "pptx", Extension: ".pptx", Label: "PowerPoint Presentation", Strategy: ExtractModifyExport},
	"ppt":  {ID: "ppt", Extension: ".ppt", Label: "PowerPoint 97-2003 Presentation", Strategy: ExtractModifyExport},

	// Plain and markup text.
	"txt":  {ID: "txt", Extension: ".txt", Label: "Plain Text", Strategy: TextBased},
	"md":   {ID: "md", Extension: ".md", Label: "Markdown", Strategy: TextBased},
	"html": {ID: "html", Extension: ".html", Label: "HTML Document", Strategy: TextBased},
	"xml":  {ID: "xml", Extension: ".xml", Label: "XML Document", Strategy: TextBased},
	"rtf":  {ID: "rtf", Extension: ".rtf", Label: "Rich Text Format", Strategy: TextBased},

	// Tabular text.
	"csv": {ID: "csv", Extension: ".csv", Label: "CSV Table", Strategy: TextBased},
	"tsv": {ID: "tsv", Extension: ".tsv", Label: "TSV Table", Strategy: TextBased},

	// OpenDocument.
	"odt": {ID: "odt", Extension: ".odt", Label: "OpenDocument Text", Strategy: DirectBinary},
	"ods": {ID: "ods", Extension: ".ods", Label: "OpenDocument Spreadsheet", Strategy: ExtractModifyExport},
	"odp": {ID: "odp", Extension: ".odp", Label: "OpenDocument Presentation", Strategy: ExtractModifyExport},

	// Images. Producible via the headless renderer, never modifiable.
	"jpg":  {ID: "jpg", Extension: ".jpg", Label: "JPEG Image", Strategy: ImageOnly},
	"jpeg": {ID: "jpeg", Extension: ".jpeg", Label: "JPEG Image", Strategy: ImageOnly},
	"png":  {ID: "png", Extension: ".png", Label: "PNG Image", Strategy: ImageOnly},
	"bmp":  {ID: "bmp", Extension: ".bmp", Label: "Bitmap Image", Strategy: ImageOnly},
	"tiff": {ID: "tiff", Extension: ".tiff", Label: "TIFF Image", Strategy: ImageOnly},
	"gif":  {ID: "gif", Extension: ".gif", Label: "GIF Image", Strategy: ImageOnly},

	// Archives.
	"zip":    {ID: "zip", Extension: ".zip", Label: "ZIP Archive", Strategy: ArchiveOnly},
	"rar":    {ID: "rar", Extension: ".rar", Label: "RAR Archive", Strategy: NotModifiable},
	"7z":     {ID: "7z", Extension: ".7z", Label: "7-Zip Archive", Strategy: NotModifiable},
	"tar.gz": {ID: "tar.gz", Extension: ".tar.gz", Label: "Gzipped Tarball", Strategy: ArchiveOnly},

	// Single-purpose formats.
	"ics":  {ID: "ics", Extension: ".ics", Label: "iCalendar", Strategy: TextBased},
	"vcf":  {ID: "vcf", Extension: ".vcf", Label: "vCard", Strategy: TextBased},
	"eml":  {ID: "eml", Extension: ".eml", Label: "Email Message", Strategy: TextBased},
	"msg":  {ID: "msg", Extension: ".msg", Label: "Outlook Message", Strategy: NotModifiable},
	"mbox": {ID: "mbox", Extension: ".mbox", Label: "Mailbox Archive", Strategy: TextBased},
}

// Normalize lowercases a format id and strips a leading dot, so ".DOCX",
// "docx" and "DOCX" all resolve to the same descriptor.
func Normalize(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.TrimPrefix(id, ".")
}

// Describe returns the descriptor for a format id. Lookup is
// case-insensitive and tolerates a leading dot.
func Describe(id string) (Descriptor, error) {
	d, ok := registry[Normalize(id)]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownFormat, id)
	}
	return d, nil
}

// Known reports whether a format id is registered.
func Known(id string) bool {
	_, ok := registry[Normalize(id)]
	return ok
}

// Modifiable reports whether a strategy admits in-place modification.
// ImageOnly, ArchiveOnly, and NotModifiable formats can be produced by the
// re-exporter but always reject modification requests.
func (s Strategy) Modifiable() bool {
	switch s {
	case ImageOnly, ArchiveOnly, NotModifiable:
		return false
	}
	return true
}

// ListByStrategy returns all descriptors with the given strategy,
// sorted by id for deterministic iteration.
func ListByStrategy(s Strategy) []Descriptor {
	var out []Descriptor
	for _, d := range registry {
		if d.Strategy == s {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns every registered format id, sorted.
func IDs() []string {
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
