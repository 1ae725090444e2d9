// Package textutils provides text extraction and comparison utilities for
// statement descriptions, references and counterparty names.
package textutils

import (
	"regexp"
	"strings"
)

var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:reference|référence|ref\.?|réf\.?)\s*:?\s*([A-Z0-9][A-Z0-9/_-]*)`),
	regexp.MustCompile(`(?i)(?:invoice|facture|inv)\s*(?:no\.?|n°|#)?\s*:?\s*([A-Z0-9][A-Z0-9/_-]*\d)`),
	regexp.MustCompile(`(?i)\b([A-Z]{2,5}-\d{4}-\d{2,6})\b`),
}

// ExtractReference tries to find a payment reference inside free-text remittance
// information. It returns "" when nothing reference-like is present.
func ExtractReference(description string) string {
	if strings.TrimSpace(description) == "" {
		return ""
	}
	for _, re := range referencePatterns {
		matches := re.FindStringSubmatch(description)
		if len(matches) > 1 {
			return strings.TrimSpace(matches[1])
		}
	}
	return ""
}

var payeePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)payee:\s*([^,;]+)`),
	regexp.MustCompile(`(?i)bénéficiaire:\s*([^,;]+)`),
	regexp.MustCompile(`(?i)recipient:\s*([^,;]+)`),
	regexp.MustCompile(`(?i)payment to:\s*([^,;]+)`),
}

// ExtractPayee tries to extract a counterparty name from remittance information.
func ExtractPayee(description string) string {
	for _, re := range payeePatterns {
		matches := re.FindStringSubmatch(description)
		if len(matches) > 1 {
			return strings.TrimSpace(matches[1])
		}
	}
	return ""
}
