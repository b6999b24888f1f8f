package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/becomeliminal/recall-go-sdk/llm"
)

const updateSystemPrompt = `You are a personal assistant maintaining a record of personal details.
You are given the current record and a user request. Perform the following steps:
1. Work out what category or detail the user wants to update in the record.
2. Extract the new value from the request.
3. Find the exact part of the record to change.
4. Change only that part, keeping every unrelated line exactly as it is.
5. Return the entire record with the updated part.
Never invent values that are not in the request or the record.
If you do not understand what the user wants, reply with exactly: ` + CannotUnderstand

const deleteSystemPrompt = `You are a personal assistant maintaining a record of personal details.
You are given the current record and a user request. Perform the following steps:
1. Work out what category or detail the user wants to delete from the record.
2. Find the exact part of the record that matches it.
3. Remove that part and nothing else.
4. Return the entire record without the removed part. If nothing remains, return an empty response.
Never invent values that are not in the request or the record.
If you do not understand what the user wants, reply with exactly: ` + CannotUnderstand

// RecordMutator rewrites a stored record's text under a user request. Both
// operations are one model call with a strict no-fabrication instruction;
// the component only builds the prompt and trims the raw answer. The caller
// checks IsCannotUnderstand before persisting anything.
type RecordMutator struct {
	client llm.Client
}

// NewRecordMutator creates a mutator on top of the given client.
func NewRecordMutator(client llm.Client) *RecordMutator {
	return &RecordMutator{client: client}
}

// Update returns the full record text with the requested field changed and
// every unrelated field preserved verbatim.
func (m *RecordMutator) Update(ctx context.Context, prompt, recordText string) (string, error) {
	reply, err := m.client.Invoke(ctx, []llm.Message{
		llm.System(updateSystemPrompt),
		llm.User(fmt.Sprintf("RECORD:\n\n%s\n\nUSER REQUEST:\n\n%s", recordText, prompt)),
	})
	if err != nil {
		return "", fmt.Errorf("update record: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// Delete returns the full record text with the requested field or value
// removed. An empty result means the whole record was deleted; the caller
// decides what that means for the stored record.
func (m *RecordMutator) Delete(ctx context.Context, prompt, recordText string) (string, error) {
	reply, err := m.client.Invoke(ctx, []llm.Message{
		llm.System(deleteSystemPrompt),
		llm.User(fmt.Sprintf("RECORD:\n\n%s\n\nUSER REQUEST:\n\n%s", recordText, prompt)),
	})
	if err != nil {
		return "", fmt.Errorf("delete from record: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
