package agents

import (
	"context"
	"fmt"

	"github.com/becomeliminal/recall-go-sdk/core"
	"github.com/becomeliminal/recall-go-sdk/llm"
)

const classifierSystemPrompt = `You categorize prompts a human sends to a personal memory assistant.
Categorize the prompt into exactly one of the following categories:
save something in memory - when the user wants to save uploaded data in memory
deduce memory from unstructured text - when the user wants to recall information already stored in memory
update memory - when the user wants to change information already stored in memory
delete memory - when the user wants to remove information stored in memory
off_topic - when the prompt does not relate to any other category

Output a single category only, nothing else.`

// ClassificationError reports a model answer that could not be normalized
// into any known intent label.
type ClassificationError struct {
	Raw string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("unclassifiable model output: %q", e.Raw)
}

// IntentClassifier maps a raw prompt to one of the five intents with a
// single model call.
type IntentClassifier struct {
	client llm.Client
}

// NewIntentClassifier creates a classifier on top of the given model client.
func NewIntentClassifier(client llm.Client) *IntentClassifier {
	return &IntentClassifier{client: client}
}

// Classify returns exactly one intent for the prompt. The model's textual
// answer is validated with a case-insensitive trim match against the known
// labels; anything else yields a ClassificationError. No retries are made
// here, callers own the retry and fallback policy.
func (c *IntentClassifier) Classify(ctx context.Context, prompt string) (core.Intent, error) {
	if prompt == "" {
		return core.IntentOffTopic, fmt.Errorf("empty prompt")
	}

	reply, err := c.client.Invoke(ctx, []llm.Message{
		llm.System(classifierSystemPrompt),
		llm.User(fmt.Sprintf("USER INPUT:\n\n%s", prompt)),
	})
	if err != nil {
		return core.IntentOffTopic, fmt.Errorf("classify prompt: %w", err)
	}

	intent, err := core.ParseIntent(normalize(reply))
	if err != nil {
		return core.IntentOffTopic, &ClassificationError{Raw: reply}
	}
	return intent, nil
}
