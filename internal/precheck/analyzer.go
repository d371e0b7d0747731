package precheck

import (
	"fmt"
	"strings"

	"github.com/cexll/prbot/internal/platform"
)

// Analyzer produces advisories about the commits of a pull request.
// Its output is placed ahead of the generated review.
type Analyzer struct {
	// SquashCommits enables the multiple commits advisory.
	SquashCommits bool
}

const emptyMessageAdvisory = "## Fill In The Commit Message\n\n" +
	"This PR contains a Commit with an Empty Commit Message. " +
	"Please fill in the Commit Message with the PR Summary.\n\n"

func squashAdvisory(n int) string {
	return fmt.Sprintf("## Squash The Commits\n\n"+
		"This PR contains %d Commits. "+
		"Please Squash the Multiple Commits into a Single Commit.\n\n", n)
}

// Analyze returns the advisories for records, squash first, or "".
func (a Analyzer) Analyze(records []platform.ChangeRecord) string {
	var sb strings.Builder
	if a.SquashCommits && len(records) > 1 {
		sb.WriteString(squashAdvisory(len(records)))
	}
	for _, r := range records {
		if !HasBody(r.Message) {
			sb.WriteString(emptyMessageAdvisory)
			break
		}
	}
	return sb.String()
}

// HasBody reports whether a commit message has a title and a non-empty
// body separated by a line break.
func HasBody(message string) bool {
	trimmed := strings.TrimRight(message, " \t\r\n")
	_, body, found := strings.Cut(trimmed, "\n")
	return found && strings.TrimSpace(body) != ""
}
