package report

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/sizefmt"
)

// CommentMarker matches the heading of a comment written by RenderComment,
// so a later run updates it instead of posting a new one.
var CommentMarker = regexp.MustCompile(`Overall size impact on .*?: `)

// GeneratedByURL is linked from the comment footer.
const GeneratedByURL = "https://github.com/Sumatoshi-tech/sizeimpact"

// CommentOptions configures RenderComment.
type CommentOptions struct {
	// Base and Head are the pull request branch names.
	Base string
	Head string

	Format      SizeFormatter
	GeneratedBy bool
}

// RenderComment renders the pull request comment body. The heading carries
// the overall delta of the first transformation across all groups. An empty
// string is returned when the document has no group at all.
func RenderComment(doc Document, opts CommentOptions) string {
	if len(doc.Groups) == 0 {
		return ""
	}

	format := orDefault(opts.Format)

	var sb strings.Builder

	fmt.Fprintf(&sb, "<h4>Overall size impact on %s merging %s: %s</h4>\n",
		html.EscapeString(opts.Base),
		html.EscapeString(opts.Head),
		format(doc.TotalDiff(0), sizefmt.Options{Diff: true}),
	)

	sb.WriteString("\n<details>\n<summary>Details</summary>\n\n")
	sb.WriteString(RenderHTML(doc, format))
	sb.WriteString("\n</details>")

	if opts.GeneratedBy {
		fmt.Fprintf(&sb, "\n\n<sub>Generated by <a href=%q>sizeimpact</a></sub>", GeneratedByURL)
	}

	return sb.String()
}
