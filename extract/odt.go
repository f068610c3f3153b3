// CLAUDE:SUMMARY Pulls headings, paragraphs, and list items out of content.xml inside an .odt archive.
package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// extractODT parses an .odt file by reading content.xml from the ZIP
// archive. Same line conventions as extractDocx: headings get markdown
// hashes, list items a leading dash.
func extractODT(path string) (*Document, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var contentFile *zip.File
	for _, f := range r.File {
		if f.Name == "content.xml" {
			contentFile = f
			break
		}
	}
	if contentFile == nil {
		return nil, fmt.Errorf("content.xml not found in archive")
	}

	rc, err := contentFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open content.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var lines []string
	var currentText strings.Builder
	var inHeading bool
	var headingLvl int
	var inParagraph bool
	var listDepth int

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "h": // <text:h>
				inHeading = true
				currentText.Reset()
				headingLvl = 1
				for _, attr := range t.Attr {
					if attr.Name.Local == "outline-level" {
						if n, err := strconv.Atoi(attr.Value); err == nil && n >= 1 && n <= 6 {
							headingLvl = n
						}
					}
				}
			case "p": // <text:p>
				inParagraph = true
				currentText.Reset()
			case "list": // <text:list>
				listDepth++
			}

		case xml.CharData:
			if inHeading || inParagraph {
				currentText.Write(t)
			}

		case xml.EndElement:
			switch {
			case t.Name.Local == "h" && inHeading:
				inHeading = false
				if text := strings.TrimSpace(currentText.String()); text != "" {
					lines = append(lines, strings.Repeat("#", headingLvl)+" "+text)
				}

			case t.Name.Local == "p" && inParagraph:
				inParagraph = false
				text := strings.TrimSpace(currentText.String())
				if text == "" {
					continue
				}
				if listDepth > 0 {
					lines = append(lines, "- "+text)
				} else {
					lines = append(lines, text)
				}

			case t.Name.Local == "list" && listDepth > 0:
				listDepth--
			}
		}
	}

	return &Document{PlainText: strings.Join(lines, "\n")}, nil
}
