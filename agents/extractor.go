package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/becomeliminal/recall-go-sdk/llm"
)

const infoExtractorSystemPrompt = `You extract personal details and preferences about a person from unstructured text.
Output a set of bullet points, one per category of personal information found.
Only extract what is already in the text. Do not add anything that is not there.
If no personal information is found, reply with exactly: no information found`

// PersonalInfoExtractor converts unstructured uploaded text into structured
// bullet-point personal-info text. The result becomes the payload that is
// chunked and indexed.
type PersonalInfoExtractor struct {
	client llm.Client
}

// NewPersonalInfoExtractor creates an extractor on top of the given client.
func NewPersonalInfoExtractor(client llm.Client) *PersonalInfoExtractor {
	return &PersonalInfoExtractor{client: client}
}

// Extract returns the bullet-point listing of personal facts in rawText, or
// the NoInformationFound notice when there is nothing to extract. Callers
// check IsNoInformation before storing the result.
func (e *PersonalInfoExtractor) Extract(ctx context.Context, rawText string) (string, error) {
	if strings.TrimSpace(rawText) == "" {
		return NoInformationFound, nil
	}

	reply, err := e.client.Invoke(ctx, []llm.Message{
		llm.System(infoExtractorSystemPrompt),
		llm.User(fmt.Sprintf("DATA:\n\n%s", rawText)),
	})
	if err != nil {
		return "", fmt.Errorf("extract personal info: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

const categoryExtractorSystemPrompt = `You extract the category or specific detail a user wants to delete or update from their request.
Output just the exact category or detail, as a maximum of 5 words. Do not output a sentence.
If you do not understand what the user wants, reply with exactly: unknown`

// CategoryExtractor turns a free-form update/delete request into a short
// label usable as a similarity-search query against the store.
type CategoryExtractor struct {
	client llm.Client
}

// NewCategoryExtractor creates an extractor on top of the given client.
func NewCategoryExtractor(client llm.Client) *CategoryExtractor {
	return &CategoryExtractor{client: client}
}

// Extract returns the target category named by the prompt, at most 5 words,
// or CategoryUnknown when the prompt is ambiguous. An over-long or hedging
// model answer is treated as not understood rather than truncated into a
// guess.
func (e *CategoryExtractor) Extract(ctx context.Context, prompt string) (string, error) {
	reply, err := e.client.Invoke(ctx, []llm.Message{
		llm.System(categoryExtractorSystemPrompt),
		llm.User(fmt.Sprintf("USER REQUEST:\n\n%s", prompt)),
	})
	if err != nil {
		return CategoryUnknown, fmt.Errorf("extract category: %w", err)
	}

	label := normalize(reply)
	if label == "" || label == CategoryUnknown || IsCannotUnderstand(label) {
		return CategoryUnknown, nil
	}
	if len(strings.Fields(label)) > 5 {
		return CategoryUnknown, nil
	}
	return label, nil
}
