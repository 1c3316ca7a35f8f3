// Package reports turns merged aggregate state into analysis reports:
// classification policies, text rendering, and CSV export.
package reports

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	pstrings "vaultaudit/internal/platform/strings"
)

// np formats human-facing counts with thousands separators
var np = message.NewPrinter(language.English)

const ruleWidth = 100

func rule(w io.Writer, ch string) {
	fmt.Fprintln(w, strings.Repeat(ch, ruleWidth))
}

func header(w io.Writer, title string) {
	rule(w, "=")
	fmt.Fprintln(w, title)
	rule(w, "=")
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", title)
	rule(w, "-")
}

func count(n int) string { return np.Sprintf("%d", n) }

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func clipPath(p string, max int) string {
	return pstrings.Truncate(p, max)
}
