package agents

import "strings"

// CategoryUnknown is the sentinel an extraction returns when the prompt does
// not identify an actionable category. It propagates as a recoverable
// "cannot act" outcome, never as fabricated content.
const CategoryUnknown = "unknown"

// CannotUnderstand is the reply the mutation prompts instruct the model to
// give verbatim when the prompt does not identify an actionable field.
const CannotUnderstand = "I do not understand what the user wants."

// NoInformationFound is the notice the info extraction prompt mandates when
// the document contains nothing worth remembering.
const NoInformationFound = "no information found"

// IsCannotUnderstand reports whether a model reply is the understanding
// failure sentinel. Matching is fuzzy on purpose: models occasionally
// rephrase the mandated sentence, and treating a near miss as real content
// would turn a refusal into a stored record.
func IsCannotUnderstand(reply string) bool {
	s := strings.ToLower(strings.TrimSpace(reply))
	return strings.Contains(s, "do not understand") ||
		strings.Contains(s, "don't understand") ||
		strings.Contains(s, "do not have information") ||
		strings.Contains(s, "do not have the information")
}

// IsNoInformation reports whether an extraction reply is the empty-document
// notice rather than extracted content.
func IsNoInformation(reply string) bool {
	s := strings.ToLower(strings.TrimSpace(reply))
	if s == "" {
		return true
	}
	return strings.Contains(s, "no information found") ||
		strings.Contains(s, "no useful material")
}

// normalize lowercases, trims whitespace, and strips the quote and period
// wrappers models like to add around single-label answers.
func normalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.Trim(s, "\"'`")
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}
