// Package extract pulls contact information out of free-form message text.
//
// The cheap deterministic pass (PatternExtractor) runs on every message; the
// LLM-backed pass (LLMExtractor) only runs when the cheap pass found nothing.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/avelarsol/concierge/agent/contract"
)

// NumberingPlan describes how candidate digit runs are validated and rendered.
// Only the NANP plan ships today; international support slots in here.
type NumberingPlan struct {
	CountryCode    string
	NationalDigits int
	TrunkDigit     string
}

// NANP is the North American Numbering Plan: 10 national digits, optional
// leading trunk "1", canonical form +1-NNN-NNN-NNNN.
var NANP = NumberingPlan{
	CountryCode:    "1",
	NationalDigits: 10,
	TrunkDigit:     "1",
}

var nonDigits = regexp.MustCompile(`\D`)

// Normalize strips non-digits, drops a single leading trunk digit from an
// overlong run, and requires exactly the plan's national digit count. The
// second return reports whether raw was a valid candidate.
func (p NumberingPlan) Normalize(raw string) (string, bool) {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) == p.NationalDigits+len(p.TrunkDigit) && strings.HasPrefix(digits, p.TrunkDigit) {
		digits = digits[len(p.TrunkDigit):]
	}
	if len(digits) != p.NationalDigits {
		return "", false
	}
	return p.canonical(digits), true
}

func (p NumberingPlan) canonical(digits string) string {
	// NANP grouping. Other plans would carry their own grouping descriptor.
	if p.NationalDigits == 10 {
		return fmt.Sprintf("+%s-%s-%s-%s", p.CountryCode, digits[0:3], digits[3:6], digits[6:10])
	}
	return "+" + p.CountryCode + "-" + digits
}

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// Ordered by specificity: bracketed and delimited forms before bare digit runs.
var phonePatterns = []*regexp.Regexp{
	// (305) 555-1234, optionally prefixed with +1
	regexp.MustCompile(`\+?1?\s*\((\d{3})\)\s*(\d{3})-(\d{4})`),
	// 305-555-1234, also matches the tail of 1-305-555-1234 and +1-305-555-1234
	regexp.MustCompile(`(\d{3})-(\d{3})-(\d{4})`),
	// 305.555.1234
	regexp.MustCompile(`(\d{3})\.(\d{3})\.(\d{4})`),
	// +1 305 555 1234
	regexp.MustCompile(`\+1\s*(\d{3})\s*(\d{3})\s*(\d{4})`),
	// bare 10-digit run, or 11 with the leading trunk digit
	regexp.MustCompile(`\b(\d{10,11})\b`),
}

// PatternExtractor is the deterministic extraction tier. It is pure and
// stateless: no I/O, and repeated calls on the same input yield the same
// results. Digit runs that merely look like phone numbers (order IDs etc.) are
// not distinguished; callers tolerate false positives.
type PatternExtractor struct {
	plan NumberingPlan
}

func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{plan: NANP}
}

// NewPatternExtractorForPlan exists for numbering plans beyond the default.
func NewPatternExtractorForPlan(plan NumberingPlan) *PatternExtractor {
	return &PatternExtractor{plan: plan}
}

func (e *PatternExtractor) Method() contractx.ExtractionMethod {
	return contractx.MethodRegex
}

// Extract satisfies the strategy contract. The error is always nil: absence of
// a match is an empty record, never a failure.
func (e *PatternExtractor) Extract(_ context.Context, text string) (contractx.ContactRecord, error) {
	return e.ExtractContacts(text), nil
}

// ExtractEmail returns the leftmost well-formed email in text, verbatim, or ""
// when none exists.
func (e *PatternExtractor) ExtractEmail(text string) string {
	if text == "" {
		return ""
	}
	return emailPattern.FindString(text)
}

// ExtractPhone returns the first candidate phone in text normalized to the
// plan's canonical form, or "" when no candidate survives normalization.
func (e *PatternExtractor) ExtractPhone(text string) string {
	if text == "" {
		return ""
	}
	for _, pattern := range phonePatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			if normalized, ok := e.plan.Normalize(match); ok {
				return normalized
			}
		}
	}
	return ""
}

// ExtractContacts runs both field extractors independently; one missing field
// never blocks the other.
func (e *PatternExtractor) ExtractContacts(text string) contractx.ContactRecord {
	record := contractx.ContactRecord{
		Email: e.ExtractEmail(text),
		Phone: e.ExtractPhone(text),
	}
	if !record.IsEmpty() {
		log.Debug().
			Str("email", record.Email).
			Str("phone", record.Phone).
			Msg("pattern extraction hit")
	}
	return record
}

// ExtractAllEmails returns every non-overlapping email match in left-to-right
// order. Calling it twice on the same input yields identical slices.
func (e *PatternExtractor) ExtractAllEmails(text string) []string {
	if text == "" {
		return nil
	}
	return emailPattern.FindAllString(text, -1)
}

// ExtractAllPhones returns every distinct normalized phone in left-to-right
// order of first appearance.
func (e *PatternExtractor) ExtractAllPhones(text string) []string {
	if text == "" {
		return nil
	}

	type hit struct {
		pos   int
		phone string
	}
	var hits []hit
	for _, pattern := range phonePatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			if normalized, ok := e.plan.Normalize(text[loc[0]:loc[1]]); ok {
				hits = append(hits, hit{pos: loc[0], phone: normalized})
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]struct{}, len(hits))
	var phones []string
	for _, h := range hits {
		if _, ok := seen[h.phone]; ok {
			continue
		}
		seen[h.phone] = struct{}{}
		phones = append(phones, h.phone)
	}
	return phones
}
