package core

import "fmt"

// Intent is the closed-set classification of a user prompt's purpose.
// Every prompt maps to exactly one intent; IntentOffTopic is the catch-all.
type Intent int

const (
	// IntentOffTopic is the default for prompts unrelated to the memory store.
	IntentOffTopic Intent = iota

	// IntentSave stores an uploaded document as new memory records.
	IntentSave

	// IntentRetrieve answers a question from stored memory.
	IntentRetrieve

	// IntentUpdate changes a field inside an existing memory record.
	IntentUpdate

	// IntentDelete removes a field or record from memory.
	IntentDelete
)

// Wire labels emitted by the classification model. These match the category
// names the classifier prompt enumerates.
const (
	LabelSave     = "save something in memory"
	LabelRetrieve = "deduce memory from unstructured text"
	LabelUpdate   = "update memory"
	LabelDelete   = "delete memory"
	LabelOffTopic = "off_topic"
)

// String returns the wire label for the intent.
func (i Intent) String() string {
	switch i {
	case IntentSave:
		return LabelSave
	case IntentRetrieve:
		return LabelRetrieve
	case IntentUpdate:
		return LabelUpdate
	case IntentDelete:
		return LabelDelete
	default:
		return LabelOffTopic
	}
}

// ParseIntent maps a wire label to an Intent. The input must already be
// normalized (lowercased, trimmed); callers do that before lookup.
func ParseIntent(label string) (Intent, error) {
	switch label {
	case LabelSave:
		return IntentSave, nil
	case LabelRetrieve:
		return IntentRetrieve, nil
	case LabelUpdate:
		return IntentUpdate, nil
	case LabelDelete:
		return IntentDelete, nil
	case LabelOffTopic:
		return IntentOffTopic, nil
	}
	return IntentOffTopic, fmt.Errorf("unknown intent label: %q", label)
}
