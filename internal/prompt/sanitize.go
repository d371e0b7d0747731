package prompt

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED_TOKEN]"

var (
	reHTMLComments = regexp.MustCompile(`<!--[\s\S]*?-->`)
	reInvisible    = regexp.MustCompile("[\u200B\u200C\u200D\uFEFF\u00AD]")
	reControl      = regexp.MustCompile("[\u0000-\u0008\u000B\u000C\u000E-\u001F\u007F-\u009F]")
	reBidi         = regexp.MustCompile("[\u202A-\u202E\u2066-\u2069]")

	reSecrets = []*regexp.Regexp{
		regexp.MustCompile(`\bgh[posr]_[A-Za-z0-9]{36}\b`),
		regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9_]{11,221}\b`),
		regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{35}\b`),
		regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9_\-]{20,}\b`),
	}
)

// SanitizeReview cleans generated review text before it is posted.
// Hidden markup and characters are dropped, credential-looking strings
// are redacted, and surrounding whitespace is trimmed.
func SanitizeReview(s string) string {
	if s == "" {
		return s
	}
	s = reHTMLComments.ReplaceAllString(s, "")
	s = reInvisible.ReplaceAllString(s, "")
	s = reControl.ReplaceAllString(s, "")
	s = reBidi.ReplaceAllString(s, "")
	for _, re := range reSecrets {
		s = re.ReplaceAllString(s, redacted)
	}
	return strings.TrimSpace(s)
}
