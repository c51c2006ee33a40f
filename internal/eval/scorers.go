// ABOUTME: Deterministic checks for summaries and QA answers
// ABOUTME: Every check returns a verdict and a message; none of them can fail with an error
package eval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/harper/docqa/internal/models"
)

// DefaultWordLimit is the maximum summary length in words
const DefaultWordLimit = 2000

// RequiredHeadings must all appear in a summary (case-insensitive)
var RequiredHeadings = []string{
	"EXECUTIVE SUMMARY",
	"KEY PROJECT GOAL",
	"CORE TECHNOLOGY / MECHANISM",
	"TOKEN ROLE / UTILITY",
	"TOKENOMICS HIGHLIGHTS",
	"SECURITY / TRUST SIGNALS",
	"RISKS OR UNCERTAINTIES",
}

// missingInfoPhrases are wordings that should have used the refusal literal instead
var missingInfoPhrases = []string{
	"not specified",
	"not mentioned",
	"not provided",
	"not described",
	"not stated",
}

// qaSections must all appear in a QA answer (case-insensitive)
var qaSections = []string{"ANSWER", "EVIDENCE", "REFERENCES"}

var (
	referencePattern = regexp.MustCompile(`Page\s*([0-9]+)\s*\|\s*Section:\s*(.+)`)
	answerPattern    = regexp.MustCompile(`(?is)ANSWER\s*(.*?)EVIDENCE`)
	numberPattern    = regexp.MustCompile(`\b\d+(?:\.\d+)?(?:%|\b)`)
)

// Check is the outcome of one deterministic check
type Check struct {
	Passed  bool
	Message string
}

func pass(msg string) Check { return Check{Passed: true, Message: msg} }
func fail(msg string) Check { return Check{Passed: false, Message: msg} }

// Reference is one "Page N | Section: S" citation
type Reference struct {
	Page    string
	Section string
}

func (r Reference) String() string {
	return fmt.Sprintf("(%s, %s)", r.Page, r.Section)
}

// CheckSummaryRequiredSections verifies every required heading is present
func CheckSummaryRequiredSections(summary string) Check {
	lower := strings.ToLower(summary)
	var missing []string
	for _, heading := range RequiredHeadings {
		if !strings.Contains(lower, strings.ToLower(heading)) {
			missing = append(missing, heading)
		}
	}
	if len(missing) > 0 {
		return fail("Missing headings: " + strings.Join(missing, ", "))
	}
	return pass("All required headings present")
}

// CheckSummaryWordLimit counts whitespace-separated words against maxWords
func CheckSummaryWordLimit(summary string, maxWords int) Check {
	count := len(strings.Fields(summary))
	if count > maxWords {
		return fail(fmt.Sprintf("Word count %d exceeds %d", count, maxWords))
	}
	return pass(fmt.Sprintf("Word count %d within limit", count))
}

// CheckSummaryMissingInfoPhrase flags ad hoc "not specified" style wording.
// A summary that uses the refusal literal anywhere passes outright.
func CheckSummaryMissingInfoPhrase(summary string) Check {
	lower := strings.ToLower(summary)
	if strings.Contains(lower, strings.ToLower(models.RefusalText)) {
		return pass("Uses required missing-info phrase")
	}
	for _, phrase := range missingInfoPhrases {
		if strings.Contains(lower, phrase) {
			return fail("Missing-info phrasing not using required phrase")
		}
	}
	return pass("No missing-info phrasing issues found")
}

// ParseReferences extracts citations, at most one per line
func ParseReferences(answer string) []Reference {
	var refs []Reference
	for _, line := range strings.Split(answer, "\n") {
		m := referencePattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		refs = append(refs, Reference{Page: strings.TrimSpace(m[1]), Section: strings.TrimSpace(m[2])})
	}
	return refs
}

// AnswerSection returns the text between the ANSWER and EVIDENCE labels, or ""
func AnswerSection(answer string) string {
	m := answerPattern.FindStringSubmatch(answer)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// CheckQAStructure verifies the ANSWER, EVIDENCE and REFERENCES labels are present
func CheckQAStructure(answer string) Check {
	lower := strings.ToLower(answer)
	var missing []string
	for _, section := range qaSections {
		if !strings.Contains(lower, strings.ToLower(section)) {
			missing = append(missing, section)
		}
	}
	if len(missing) > 0 {
		return fail("Missing sections: " + strings.Join(missing, ", "))
	}
	return pass("Structure valid")
}

// CheckQAReferenceFormat requires at least one parseable citation.
// The refusal literal carries no citations and passes.
func CheckQAReferenceFormat(answer string) Check {
	if models.IsRefusal(answer) {
		return pass("Not-found response; no references required")
	}
	if len(ParseReferences(answer)) == 0 {
		return fail("No Page/Section references found")
	}
	return pass("References include Page and Section")
}

// CheckNotFoundFormat reports whether the exact refusal literal was used. It always passes.
func CheckNotFoundFormat(answer string) Check {
	if models.IsRefusal(answer) {
		return pass("Exact not-found response used")
	}
	return pass("Not-found response not used")
}

// CheckReferenceValidity requires every citation to match a retrieved (page, section) pair
func CheckReferenceValidity(answer string, chunks []models.RetrievedChunk) Check {
	if models.IsRefusal(answer) {
		return pass("Not-found response; skipping reference validation")
	}
	refs := ParseReferences(answer)
	if len(refs) == 0 {
		return fail("No references to validate")
	}

	available := make(map[Reference]struct{}, len(chunks))
	for _, c := range chunks {
		available[Reference{Page: fmt.Sprint(c.Page), Section: c.Section}] = struct{}{}
	}

	var missing []string
	for _, ref := range refs {
		if _, ok := available[ref]; !ok {
			missing = append(missing, ref.String())
		}
	}
	if len(missing) > 0 {
		return fail(fmt.Sprintf("References not found in retrieved chunks: [%s]", strings.Join(missing, ", ")))
	}
	return pass("All references match retrieved chunks")
}

// CheckNumericHallucination requires every number in the ANSWER section to occur
// somewhere in the retrieved chunk text. Without an ANSWER section the whole answer is scanned.
func CheckNumericHallucination(answer string, chunks []models.RetrievedChunk) Check {
	if models.IsRefusal(answer) {
		return pass("Not-found response; skipping numeric check")
	}

	scope := AnswerSection(answer)
	if scope == "" {
		scope = answer
	}
	numbers := numberPattern.FindAllString(scope, -1)
	if len(numbers) == 0 {
		return pass("No numeric claims detected")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	combined := strings.ToLower(strings.Join(texts, "\n"))

	var missing []string
	for _, n := range numbers {
		if !strings.Contains(combined, strings.ToLower(n)) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fail(fmt.Sprintf("Numeric claims not found in context: [%s]", strings.Join(missing, ", ")))
	}
	return pass("All numeric claims found in context")
}
