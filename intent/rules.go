// CLAUDE:SUMMARY Priority-ordered deterministic rules: format mentions, export verbs, content verbs, scope keywords.
package intent

import (
	"regexp"
	"strings"
)

// formatRule matches a format mention. Rules are evaluated in order and
// the first match wins, so more specific names (docx, xlsx, tar.gz) are
// listed before their shorter cousins (doc, xls, gz).
type formatRule struct {
	formatID string
	re       *regexp.Regexp
}

func fr(id, pattern string) formatRule {
	return formatRule{formatID: id, re: regexp.MustCompile(`(?i)` + pattern)}
}

// explicitFormatRules name a format outright. The whole tier is scanned
// before any synonym, so "export my presentation as pdf" resolves to pdf:
// "presentation" only describes the source, "pdf" names the target. Word
// boundaries keep "doc" from firing inside "document" and "xls" inside
// "xlsx".
var explicitFormatRules = []formatRule{
	fr("tar.gz", `\btar\.gz\b`),
	fr("docx", `\bdocx\b`),
	fr("xlsx", `\bxlsx\b`),
	fr("pptx", `\bpptx\b`),
	fr("jpeg", `\bjpeg\b`),
	fr("tiff", `\btiff?\b`),
	fr("mbox", `\bmbox\b`),
	fr("pdf", `\bpdf\b`),
	fr("doc", `\bdoc\b`),
	fr("xls", `\bxls\b`),
	fr("ppt", `\bppt\b`),
	fr("odt", `\bodt\b`),
	fr("ods", `\bods\b`),
	fr("odp", `\bodp\b`),
	fr("rtf", `\brtf\b`),
	fr("csv", `\bcsv\b`),
	fr("tsv", `\btsv\b`),
	fr("md", `\bmd\b|\bmarkdown\b`),
	fr("html", `\bhtml?\b`),
	fr("xml", `\bxml\b`),
	fr("txt", `\btxt\b`),
	fr("ics", `\bics\b`),
	fr("vcf", `\bvcf\b`),
	fr("eml", `\beml\b`),
	fr("jpg", `\bjpg\b`),
	fr("png", `\bpng\b`),
	fr("bmp", `\bbmp\b`),
	fr("gif", `\bgif\b`),
	fr("zip", `\bzip\b`),
	fr("rar", `\brar\b`),
	fr("7z", `\b7z\b`),
}

// synonymFormatRules map descriptive wording to a format. Consulted only
// when no explicit name matched anywhere in the message.
var synonymFormatRules = []formatRule{
	fr("tar.gz", `\btarball\b`),
	fr("docx", `\bword\s+(doc(ument)?|file)\b|\bms\s*word\b`),
	fr("xlsx", `\bexcel\b|\bspreadsheet\b|\bworkbook\b`),
	fr("pptx", `\bpower\s*point\b|\bpresentation\b|\bslides?\b`),
	fr("txt", `\bplain\s*text\s*file\b|\btext\s*file\b`),
	fr("ics", `\bicalendar\b|\bcalendar\s*file\b`),
	fr("vcf", `\bvcard\b|\bcontact\s*file\b`),
}

// matchFormat returns the first matching format id, or "". Explicit names
// decide before synonyms.
func matchFormat(message string) string {
	for _, r := range explicitFormatRules {
		if r.re.MatchString(message) {
			return r.formatID
		}
	}
	for _, r := range synonymFormatRules {
		if r.re.MatchString(message) {
			return r.formatID
		}
	}
	return ""
}

var exportVerbRe = regexp.MustCompile(`(?i)\b(export|download|save|convert|turn\s+(this|it)\s+into|give\s+me\s+(a|the)\s+file|as\s+a\s+file|make\s+(me\s+)?(a|an|the)\s+file)\b`)

// hasExportVerb reports whether the message carries export intent wording.
func hasExportVerb(message string) bool {
	return exportVerbRe.MatchString(message)
}

var contentVerbRe = regexp.MustCompile(`(?i)\b(create|write|generate|draft|compose|make\s+(me\s+)?(a|an|the)\b|prepare|produce|build\s+(a|an|the)\b|come\s+up\s+with)\b`)

// makeFileRe is the "make me a file" phrasing: it reads like a content
// verb but asks for a container, not new content.
var makeFileRe = regexp.MustCompile(`(?i)\bmake\s+(me\s+)?(a|an|the)\s+file\b`)

// hasContentVerb reports whether the message asks for new content to be
// produced before exporting. Pure packaging wording is excluded first.
func hasContentVerb(message string) bool {
	return contentVerbRe.MatchString(makeFileRe.ReplaceAllString(message, ""))
}

var modifyVerbRe = regexp.MustCompile(`(?i)\b(change|replace|modify|edit|update|correct|fix|rename|rewrite|remove|delete|add\s+(a\s+)?column|insert)\b`)

var analyzeVerbRe = regexp.MustCompile(`(?i)\b(analy[sz]e|summari[sz]e|explain|describe|review|what\s+(is|does)|tell\s+me\s+about|extract|read)\b`)

// scopeRules resolve which part of the conversation an export covers.
// Keyword heuristics only, no oracle call. First match wins.
var scopeRules = []struct {
	scope Scope
	re    *regexp.Regexp
}{
	{ScopeAll, regexp.MustCompile(`(?i)\b(entire|whole|full|complete)\s+(conversation|chat|thread|history)\b|\beverything\b|\ball\s+(messages|answers|of\s+it)\b`)},
	{ScopePrevious, regexp.MustCompile(`(?i)\b(previous|earlier|last)\s+(answer|response|message|reply)\b|\bthe\s+one\s+before\b`)},
	{ScopeCurrent, regexp.MustCompile(`(?i)\b(this|latest|current)\s+(answer|response|message|reply)\b`)},
}

// DetectScope determines whether an export covers the latest answer, the
// previous one, or the whole conversation. Defaults to ScopeCurrent.
func DetectScope(message string) Scope {
	m := strings.TrimSpace(message)
	for _, r := range scopeRules {
		if r.re.MatchString(m) {
			return r.scope
		}
	}
	return ScopeCurrent
}
