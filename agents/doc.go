// Package agents holds the single-call LLM components of the assistant:
// intent classification, personal-info extraction, category extraction, and
// record mutation.
//
// Each component builds one fixed prompt, makes one model call, and
// normalizes the raw answer. None of them touch the memory store; the
// engine sequences them and owns all writes.
//
// "Cannot understand" and "no information found" are sentinel string
// results, not errors: they signal a valid "could not act" outcome that the
// engine surfaces to the user without mutating anything.
package agents
