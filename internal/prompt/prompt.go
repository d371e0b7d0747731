package prompt

import "strings"

// DefaultHeader opens every published review.
const DefaultHeader = "[**\\[Experimental Bot, please feedback here\\]**](https://github.com/search?q=repo%3Aapache%2Fnuttx+13552&type=issues)"

// DefaultQuestion follows the requirements and precedes the PR body.
const DefaultQuestion = "# Does this PR meet the NuttX Requirements?"

// DefaultRequirements is the PR template the generated review checks against.
const DefaultRequirements = `# Here are the requirements for a NuttX PR

## Summary

* Why change is necessary (fix, update, new feature)?
* What functional part of the code is being changed?
* How does the change exactly work (what will change and how)?
* Related [NuttX Issue](https://github.com/apache/nuttx/issues) reference if applicable.
* Related NuttX Apps [Issue](https://github.com/apache/nuttx-apps/issues) / [Pull Request](https://github.com/apache/nuttx-apps/pulls) reference if applicable.

## Impact

* Is new feature added? Is existing feature changed?
* Impact on user (will user need to adapt to change)? NO / YES (please describe if yes).
* Impact on build (will build process change)? NO / YES (please descibe if yes).
* Impact on hardware (will arch(s) / board(s) / driver(s) change)? NO / YES (please describe if yes).
* Impact on documentation (is update required / provided)? NO / YES (please describe if yes).
* Impact on security (any sort of implications)? NO / YES (please describe if yes).
* Impact on compatibility (backward/forward/interoperability)? NO / YES (please describe if yes).
* Anything else to consider?

## Testing

I confirm that changes are verified on local setup and works as intended:
* Build Host(s): OS (Linux,BSD,macOS,Windows,..), CPU(Intel,AMD,ARM), compiler(GCC,CLANG,version), etc.
* Target(s): arch(sim,RISC-V,ARM,..), board:config, etc.

Testing logs before change:

` + "```" + `
your testing logs here
` + "```" + `

Testing logs after change:
` + "```" + `
your testing logs here
` + "```"

// Template is the fixed instruction text sent ahead of every PR body.
type Template struct {
	Requirements string
	Question     string
}

// Default returns the NuttX requirements template.
func Default() Template {
	return Template{Requirements: DefaultRequirements, Question: DefaultQuestion}
}

// Build concatenates the instructions with the PR body.
func (t Template) Build(body string) string {
	var sb strings.Builder
	sb.WriteString(t.Requirements)
	if t.Question != "" {
		sb.WriteString("\n\n")
		sb.WriteString(t.Question)
	}
	sb.WriteString("\n\n")
	sb.WriteString(body)
	return sb.String()
}

// Compose assembles the published comment: header, advisories, review.
// advisories may be empty; the separators are always present.
func Compose(header, advisories, review string) string {
	return header + "\n\n" + advisories + "\n\n" + review
}
