package engine_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/recall-go-sdk/agents"
	"github.com/becomeliminal/recall-go-sdk/core"
	"github.com/becomeliminal/recall-go-sdk/engine"
	"github.com/becomeliminal/recall-go-sdk/history"
	"github.com/becomeliminal/recall-go-sdk/llm"
	"github.com/becomeliminal/recall-go-sdk/memory"
	"github.com/becomeliminal/recall-go-sdk/memory/embedder/mock"
	"github.com/becomeliminal/recall-go-sdk/memory/store/chromem"
)

// fakeModel scripts every model role the engine calls, dispatching on the
// system prompt. An unset handler failing the test catches branches that
// reach the model when they should not.
type fakeModel struct {
	t *testing.T

	classify func(prompt string) string
	extract  func(doc string) string
	category func(prompt string) string
	update   func(prompt, record string) string
	del      func(prompt, record string) string
	answer   func(prompt, records string) string
	generic  func(prompt string) string

	lastInvoke []llm.Message
}

func (f *fakeModel) Invoke(ctx context.Context, messages []llm.Message) (string, error) {
	f.lastInvoke = messages

	var system strings.Builder
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			system.WriteString(m.Content)
		}
	}
	sys := system.String()
	user := messages[len(messages)-1].Content

	switch {
	case strings.Contains(sys, "Categorize the prompt"):
		return f.call("classifier", f.classify, strings.TrimPrefix(user, "USER INPUT:\n\n")), nil
	case strings.Contains(sys, "extract personal details"):
		return f.call("info extractor", f.extract, strings.TrimPrefix(user, "DATA:\n\n")), nil
	case strings.Contains(sys, "maximum of 5 words"):
		return f.call("category extractor", f.category, strings.TrimPrefix(user, "USER REQUEST:\n\n")), nil
	case strings.Contains(sys, "update in the record"):
		prompt, record := splitMutation(f.t, user)
		if f.update == nil {
			f.t.Fatalf("unexpected update call")
		}
		return f.update(prompt, record), nil
	case strings.Contains(sys, "Remove that part and nothing else"):
		prompt, record := splitMutation(f.t, user)
		if f.del == nil {
			f.t.Fatalf("unexpected delete call")
		}
		return f.del(prompt, record), nil
	case strings.Contains(sys, "MEMORY RECORDS"):
		if f.answer == nil {
			f.t.Fatalf("unexpected answer call")
		}
		_, records, _ := strings.Cut(sys, "MEMORY RECORDS:\n\n")
		return f.answer(user, records), nil
	case strings.Contains(sys, "Respond to the user sentence in English"):
		return f.call("generic responder", f.generic, user), nil
	default:
		f.t.Fatalf("unrecognized system prompt: %q", sys)
		return "", nil
	}
}

func (f *fakeModel) call(name string, fn func(string) string, arg string) string {
	if fn == nil {
		f.t.Fatalf("unexpected %s call", name)
	}
	return fn(arg)
}

func splitMutation(t *testing.T, user string) (prompt, record string) {
	t.Helper()
	body := strings.TrimPrefix(user, "RECORD:\n\n")
	record, prompt, ok := strings.Cut(body, "\n\nUSER REQUEST:\n\n")
	require.True(t, ok, "malformed mutation message: %q", user)
	return prompt, record
}

func newTestEngine(t *testing.T, model *fakeModel, opts ...engine.Option) (*engine.Engine, *chromem.Store) {
	t.Helper()
	store, err := chromem.New(chromem.Config{}, mock.New())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return engine.New(model, store, opts...), store
}

func seed(t *testing.T, store *chromem.Store, texts ...string) []string {
	t.Helper()
	records := make([]memory.Record, 0, len(texts))
	for _, text := range texts {
		records = append(records, memory.Record{Text: text})
	}
	ids, err := store.Add(context.Background(), records)
	require.NoError(t, err)
	return ids
}

func topRecord(t *testing.T, store *chromem.Store, query string) memory.Record {
	t.Helper()
	results, err := store.SimilaritySearch(context.Background(), query, 1)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	return results[0]
}

func TestRunRejectsEmptyPrompt(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeModel{t: t})

	_, err := eng.Run(context.Background(), &engine.Input{Prompt: "   "})
	require.Error(t, err)

	_, err = eng.Run(context.Background(), nil)
	require.Error(t, err)
}

func TestSaveWithoutDocument(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelSave },
	}
	eng, store := newTestEngine(t, model)

	out, err := eng.Run(context.Background(), &engine.Input{Prompt: "Save this in memory"})
	require.NoError(t, err)
	assert.Equal(t, core.IntentSave, out.Intent)
	assert.Equal(t, engine.MsgNothingToSave, out.Reply)
	assert.False(t, out.StoreChanged)
	assert.Equal(t, 0, store.Count())
}

func TestSaveAndRetrieveRoundTrip(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelSave },
		extract: func(doc string) string {
			assert.Contains(t, doc, "John Smith")
			return "- Name: John Smith\n- Email: john@example.com\n- Favorite color: blue"
		},
	}
	eng, store := newTestEngine(t, model)
	ctx := context.Background()

	out, err := eng.Run(ctx, &engine.Input{
		Prompt:   "Save this in memory",
		Document: "Hi, I'm John Smith, you can reach me at john@example.com. I love blue.",
	})
	require.NoError(t, err)
	require.NoError(t, out.Err)
	assert.True(t, out.StoreChanged)
	assert.Equal(t, "Saved 1 memory record from your document.", out.Reply)
	require.Equal(t, 1, store.Count())

	model.classify = func(string) string { return core.LabelRetrieve }
	model.answer = func(prompt, records string) string {
		assert.Contains(t, records, "john@example.com", "retrieval context carries the stored record")
		return "John's email is john@example.com."
	}

	out, err = eng.Run(ctx, &engine.Input{Prompt: "What is John's email?"})
	require.NoError(t, err)
	assert.Equal(t, core.IntentRetrieve, out.Intent)
	assert.Equal(t, "John's email is john@example.com.", out.Reply)
	assert.False(t, out.StoreChanged)
}

func TestSaveLargeDocumentReportsRecordCount(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelSave },
		extract: func(string) string {
			return "- Name: John Smith\n- Email: john@example.com\n- City: London\n- Favorite color: blue"
		},
	}
	eng, store := newTestEngine(t, model, engine.WithChunker(&memory.Chunker{Size: 40, Overlap: 0}))

	out, err := eng.Run(context.Background(), &engine.Input{
		Prompt:   "Save this in memory",
		Document: "a long document about John",
	})
	require.NoError(t, err)
	require.NoError(t, out.Err)
	assert.Greater(t, store.Count(), 1)
	assert.Equal(t, fmt.Sprintf("Saved %d memory records from your document.", store.Count()), out.Reply)
}

func TestSaveDocumentWithoutPersonalInfo(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelSave },
		extract:  func(string) string { return agents.NoInformationFound },
	}
	eng, store := newTestEngine(t, model)

	out, err := eng.Run(context.Background(), &engine.Input{
		Prompt:   "Save this in memory",
		Document: "The weather was mild on Tuesday.",
	})
	require.NoError(t, err)
	assert.Equal(t, engine.MsgNothingSaved, out.Reply)
	assert.False(t, out.StoreChanged)
	assert.Equal(t, 0, store.Count())
}

func TestRetrieveEmptyStore(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelRetrieve },
	}
	eng, _ := newTestEngine(t, model)

	out, err := eng.Run(context.Background(), &engine.Input{Prompt: "Where does John live?"})
	require.NoError(t, err)
	assert.Equal(t, engine.MsgNothingStored, out.Reply)
}

func TestUpdateRewritesMatchingRecord(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelUpdate },
		update: func(prompt, record string) string {
			assert.Contains(t, record, "old@example.com")
			return strings.Replace(record, "old@example.com", "new@example.com", 1)
		},
	}
	eng, store := newTestEngine(t, model)
	ids := seed(t, store, "- Name: John Smith\n- Email: old@example.com")

	out, err := eng.Run(context.Background(), &engine.Input{Prompt: "Can you update email to new@example.com?"})
	require.NoError(t, err)
	require.NoError(t, out.Err)
	assert.Equal(t, engine.MsgUpdated, out.Reply)
	assert.True(t, out.StoreChanged)

	rec := topRecord(t, store, "email")
	assert.Equal(t, ids[0], rec.ID, "record keeps its identity across updates")
	assert.Contains(t, rec.Text, "new@example.com")
	assert.Contains(t, rec.Text, "John Smith", "unrelated fields survive the rewrite")
	assert.NotContains(t, rec.Text, "old@example.com")
}

func TestUpdateIsIdempotent(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelUpdate },
		update: func(prompt, record string) string {
			rewritten := strings.Replace(record, "old@example.com", "new@example.com", 1)
			return rewritten
		},
	}
	eng, store := newTestEngine(t, model)
	ids := seed(t, store, "- Email: old@example.com")
	ctx := context.Background()

	input := &engine.Input{Prompt: "Can you update email to new@example.com?"}
	for i := 0; i < 2; i++ {
		out, err := eng.Run(ctx, input)
		require.NoError(t, err)
		require.NoError(t, out.Err, "run %d", i)
	}

	require.Equal(t, 1, store.Count())
	rec := topRecord(t, store, "email")
	assert.Equal(t, ids[0], rec.ID)
	assert.Equal(t, "- Email: new@example.com", rec.Text)
}

func TestUpdateNotUnderstoodLeavesStoreAlone(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelUpdate },
		update:   func(prompt, record string) string { return agents.CannotUnderstand },
	}
	eng, store := newTestEngine(t, model)
	seed(t, store, "- Email: old@example.com")

	before := topRecord(t, store, "email")
	out, err := eng.Run(context.Background(), &engine.Input{Prompt: "Can you update xyz123?"})
	require.NoError(t, err)
	assert.Equal(t, agents.CannotUnderstand, out.Reply)
	assert.False(t, out.StoreChanged)

	after := topRecord(t, store, "email")
	assert.Equal(t, before, after, "an unresolved request writes nothing")
}

func TestUpdateEmptyStore(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelUpdate },
	}
	eng, _ := newTestEngine(t, model)

	out, err := eng.Run(context.Background(), &engine.Input{Prompt: "Can you update email?"})
	require.NoError(t, err)
	assert.Equal(t, engine.MsgNothingToEdit, out.Reply)
}

func TestDeleteFieldFromRecord(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelDelete },
		category: func(string) string { return "email address" },
		del: func(prompt, record string) string {
			return "- Name: John Smith"
		},
	}
	eng, store := newTestEngine(t, model)
	ids := seed(t, store, "- Name: John Smith\n- Email: old@example.com")

	out, err := eng.Run(context.Background(), &engine.Input{Prompt: "Can you delete my email?"})
	require.NoError(t, err)
	require.NoError(t, out.Err)
	assert.Equal(t, engine.MsgDeleted, out.Reply)
	assert.True(t, out.StoreChanged)

	rec := topRecord(t, store, "john smith")
	assert.Equal(t, ids[0], rec.ID)
	assert.NotContains(t, rec.Text, "old@example.com")
	assert.Contains(t, rec.Text, "John Smith")

	// Searching for the removed value must not bring it back.
	hit := topRecord(t, store, "email old@example.com")
	assert.NotContains(t, hit.Text, "old@example.com")
}

func TestDeleteEmptiesRecordRemovesIt(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelDelete },
		category: func(string) string { return "email address" },
		del:      func(prompt, record string) string { return "" },
	}
	eng, store := newTestEngine(t, model)
	seed(t, store, "- Email: old@example.com")

	out, err := eng.Run(context.Background(), &engine.Input{Prompt: "Can you delete my email?"})
	require.NoError(t, err)
	require.NoError(t, out.Err)
	assert.Equal(t, engine.MsgRecordRemoved, out.Reply)
	assert.True(t, out.StoreChanged)
	assert.Equal(t, 0, store.Count(), "an emptied record does not linger as a shell")
}

func TestDeleteUnknownTarget(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelDelete },
		category: func(string) string { return agents.CategoryUnknown },
		// del stays nil: an unresolved target must never reach the mutator.
	}
	eng, store := newTestEngine(t, model)
	seed(t, store, "- Email: old@example.com")

	before := topRecord(t, store, "email")
	out, err := eng.Run(context.Background(), &engine.Input{Prompt: "Can you delete xyz123?"})
	require.NoError(t, err)
	assert.Equal(t, agents.CannotUnderstand, out.Reply)
	assert.False(t, out.StoreChanged)
	assert.Equal(t, before, topRecord(t, store, "email"))
}

func TestDeleteEmptyStore(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelDelete },
		category: func(string) string { return "email address" },
	}
	eng, _ := newTestEngine(t, model)

	out, err := eng.Run(context.Background(), &engine.Input{Prompt: "Can you delete my email?"})
	require.NoError(t, err)
	assert.Equal(t, engine.MsgNothingToDrop, out.Reply)
}

func TestOffTopic(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelOffTopic },
		generic: func(prompt string) string {
			assert.Equal(t, "Hello", prompt)
			return "Hi there! How can I help you today?"
		},
	}
	eng, store := newTestEngine(t, model)

	out, err := eng.Run(context.Background(), &engine.Input{Prompt: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, core.IntentOffTopic, out.Intent)
	assert.Equal(t, "Hi there! How can I help you today?", out.Reply)
	assert.False(t, out.StoreChanged)
	assert.Equal(t, 0, store.Count())
}

func TestClassificationFailureFallsBackToOffTopic(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return "I believe the user wants to chat" },
		generic:  func(string) string { return "Hi!" },
	}
	eng, _ := newTestEngine(t, model)

	out, err := eng.Run(context.Background(), &engine.Input{Prompt: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, core.IntentOffTopic, out.Intent)
	assert.Equal(t, "Hi!", out.Reply)
}

func TestHistoryCarriedAcrossTurns(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelOffTopic },
		generic:  func(string) string { return "Nice to meet you, Ada." },
	}
	eng, _ := newTestEngine(t, model, engine.WithHistory(history.NewMemoryStore(10)))
	ctx := context.Background()

	_, err := eng.Run(ctx, &engine.Input{ConversationID: "c1", Prompt: "My name is Ada"})
	require.NoError(t, err)

	model.generic = func(string) string { return "You told me your name is Ada." }
	_, err = eng.Run(ctx, &engine.Input{ConversationID: "c1", Prompt: "What did I just tell you?"})
	require.NoError(t, err)

	var sawFirstExchange bool
	for _, m := range model.lastInvoke {
		if m.Role == llm.RoleUser && m.Content == "My name is Ada" {
			sawFirstExchange = true
		}
	}
	assert.True(t, sawFirstExchange, "prior turns reach the model as conversation context")
}

func TestPersistFailureReportedWithoutStoppingTheLoop(t *testing.T) {
	model := &fakeModel{
		t:        t,
		classify: func(string) string { return core.LabelSave },
		extract:  func(string) string { return "- Name: John" },
	}
	store, err := chromem.New(chromem.Config{
		Path: filepath.Join(t.TempDir(), "missing", "deep", "store.gob"),
	}, mock.New())
	require.NoError(t, err)
	defer store.Close()
	eng := engine.New(model, store)

	out, err := eng.Run(context.Background(), &engine.Input{
		Prompt:   "Save this in memory",
		Document: "I am John.",
	})
	require.NoError(t, err, "a failed flush must not kill the conversation loop")
	require.Error(t, out.Err)
	var perr *memory.PersistError
	assert.ErrorAs(t, out.Err, &perr)
	assert.Contains(t, out.Reply, "could not be saved")
}
