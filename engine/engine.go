// Package engine sequences the assistant's per-turn pipeline: classify the
// prompt, branch to the matching memory operation, and keep the vector
// index and stored payloads consistent.
//
// One prompt drives exactly one traversal of
//
//	Idle -> Classifying -> {Saving | Retrieving | Updating | Deleting |
//	OffTopicHandling} -> Idle
//
// All persistent state lives in the memory store; the engine retains
// nothing between turns. Turns are serialized: the store has no multi-writer
// concurrency control of its own, so the engine holds a mutex for the whole
// of each turn.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/becomeliminal/recall-go-sdk/agents"
	"github.com/becomeliminal/recall-go-sdk/core"
	"github.com/becomeliminal/recall-go-sdk/history"
	"github.com/becomeliminal/recall-go-sdk/llm"
	"github.com/becomeliminal/recall-go-sdk/memory"
)

// User-visible outcomes for the non-mutating paths.
const (
	MsgNothingToSave = "You have not uploaded any document to save in memory. Please upload a file and try again."
	MsgNothingSaved  = "I could not find any personal information in the document, so nothing was saved."
	MsgNothingStored = "There is nothing in memory."
	MsgNothingToEdit = "There is nothing in memory to update."
	MsgNothingToDrop = "There is nothing in memory to delete."
	MsgUpdated       = "Updated memory with the new information."
	MsgDeleted       = "Removed that information from memory."
	MsgRecordRemoved = "That was everything in the record, so I removed it from memory entirely."
	MsgTurnFailed    = "Something went wrong while working on your memory. Nothing was changed that was not reported."
	MsgNoReply       = "Sorry, I could not come up with a response. Please try again."
)

const genericSystemPrompt = "You are a helpful assistant. Respond to the user sentence in English."

const answerSystemPrompt = `You are a helpful assistant answering questions about a person from their stored memory records.
Use only the records below. If they do not contain the answer, say that you do not know.

MEMORY RECORDS:

%s`

// Engine is the memory orchestrator.
type Engine struct {
	client llm.Client
	store  memory.Store

	classifier *agents.IntentClassifier
	extractor  *agents.PersonalInfoExtractor
	categories *agents.CategoryExtractor
	mutator    *agents.RecordMutator

	chunker     *memory.Chunker
	history     history.Store
	retrievalK  int
	turnTimeout time.Duration

	mu sync.Mutex // serializes turns; the store assumes a single writer
}

// Option configures the engine.
type Option func(*Engine)

// WithHistory sets the conversation-history backend.
func WithHistory(h history.Store) Option {
	return func(e *Engine) {
		e.history = h
	}
}

// WithChunker overrides the default document chunker.
func WithChunker(c *memory.Chunker) Option {
	return func(e *Engine) {
		e.chunker = c
	}
}

// WithRetrievalK sets how many records a fact-recall question pulls in.
func WithRetrievalK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.retrievalK = k
		}
	}
}

// WithTurnTimeout bounds one full turn, model calls included. Zero disables
// the engine's own deadline.
func WithTurnTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.turnTimeout = d
	}
}

// New creates an engine over a model client and a record store.
func New(client llm.Client, store memory.Store, opts ...Option) *Engine {
	e := &Engine{
		client:      client,
		store:       store,
		classifier:  agents.NewIntentClassifier(client),
		extractor:   agents.NewPersonalInfoExtractor(client),
		categories:  agents.NewCategoryExtractor(client),
		mutator:     agents.NewRecordMutator(client),
		chunker:     memory.NewChunker(),
		history:     history.NewMemoryStore(0),
		retrievalK:  3,
		turnTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Input is one user turn.
type Input struct {
	// ConversationID scopes the history buffer. Empty means a single
	// local conversation.
	ConversationID string

	// Prompt is the user's message.
	Prompt string

	// Document is optional uploaded raw text, consumed by the save path.
	Document string
}

// Output is the result of one turn.
type Output struct {
	// Intent the prompt was classified as (off-topic after a
	// classification failure).
	Intent core.Intent

	// Reply is the user-visible message. Always non-empty: failure paths
	// produce a human-readable message too.
	Reply string

	// StoreChanged reports whether this turn mutated and persisted the
	// store.
	StoreChanged bool

	// Err is set when the turn failed (store lookup, write, or persist
	// error). It distinguishes "write failed" from a deliberate no-op;
	// hosts log it and keep accepting prompts.
	Err error
}

// Run executes one turn. The error return is reserved for unusable input;
// everything that can go wrong mid-turn lands in Output.Err with a
// user-facing Reply, so a conversation loop never has to stop.
func (e *Engine) Run(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.Prompt) == "" {
		return nil, fmt.Errorf("empty prompt")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.turnTimeout)
		defer cancel()
	}

	session := NewSession(input.ConversationID)
	if stored, err := e.history.Load(ctx, session.ConversationID); err == nil {
		session.Restore(stored)
	} else {
		log.Printf("[ENGINE] History load failed, continuing without: %v", err)
	}

	// Classification failure is recovered locally: fail safe into the
	// off-topic branch, which touches no store state.
	intent, err := e.classifier.Classify(ctx, input.Prompt)
	if err != nil {
		log.Printf("[ENGINE] Classification failed, defaulting to off_topic: %v", err)
		intent = core.IntentOffTopic
	}
	log.Printf("[ENGINE] Intent: %s", intent)

	var out *Output
	switch intent {
	case core.IntentSave:
		out = e.runSave(ctx, input)
	case core.IntentRetrieve:
		out = e.runRetrieve(ctx, input, session)
	case core.IntentUpdate:
		out = e.runUpdate(ctx, input)
	case core.IntentDelete:
		out = e.runDelete(ctx, input)
	default:
		out = e.runOffTopic(ctx, input, session)
	}
	out.Intent = intent

	if out.Reply == "" {
		out.Reply = MsgNoReply
	}
	e.recordTurn(ctx, session, input.Prompt, out.Reply)
	return out, nil
}

// runSave ingests an uploaded document: extract personal info, chunk it,
// index every chunk as a fresh record, persist.
func (e *Engine) runSave(ctx context.Context, input *Input) *Output {
	document := strings.TrimSpace(input.Document)
	if document == "" {
		return &Output{Reply: MsgNothingToSave}
	}

	extracted, err := e.extractor.Extract(ctx, document)
	if err != nil {
		return e.failed("analyze the document", err)
	}
	if agents.IsNoInformation(extracted) {
		return &Output{Reply: MsgNothingSaved}
	}

	chunks := e.chunker.Split(extracted)
	records := make([]memory.Record, 0, len(chunks))
	for _, chunk := range chunks {
		records = append(records, memory.Record{
			Text:     chunk,
			Metadata: map[string]string{"source": "upload"},
		})
	}

	ids, err := e.store.Add(ctx, records)
	if err != nil {
		return e.failed("store the document", err)
	}
	if err := e.store.Persist(ctx); err != nil {
		return e.failed("persist the store", err)
	}

	noun := "records"
	if len(ids) == 1 {
		noun = "record"
	}
	return &Output{
		Reply:        fmt.Sprintf("Saved %d memory %s from your document.", len(ids), noun),
		StoreChanged: true,
	}
}

// runRetrieve answers a fact-recall question from the top-k similar records.
func (e *Engine) runRetrieve(ctx context.Context, input *Input, session *Session) *Output {
	records, err := e.store.SimilaritySearch(ctx, input.Prompt, e.retrievalK)
	if err != nil {
		return e.failed("search memory", err)
	}
	if len(records) == 0 {
		return &Output{Reply: MsgNothingStored}
	}

	var contextBlock strings.Builder
	for i, rec := range records {
		fmt.Fprintf(&contextBlock, "%d. %s\n\n", i+1, rec.Text)
	}

	messages := []llm.Message{llm.System(fmt.Sprintf(answerSystemPrompt, contextBlock.String()))}
	messages = append(messages, session.Messages()...)
	messages = append(messages, llm.User(input.Prompt))

	answer, err := e.client.Invoke(ctx, messages)
	if err != nil {
		return e.failed("answer from memory", err)
	}
	return &Output{Reply: strings.TrimSpace(answer)}
}

// runUpdate rewrites the most similar record under the user's request. The
// store is only touched once the model returned a validated, non-sentinel
// result; the record keeps its id.
func (e *Engine) runUpdate(ctx context.Context, input *Input) *Output {
	records, err := e.store.SimilaritySearch(ctx, input.Prompt, 1)
	if err != nil {
		return e.failed("search memory", err)
	}
	if len(records) == 0 {
		return &Output{Reply: MsgNothingToEdit}
	}
	target := records[0]

	newText, err := e.mutator.Update(ctx, input.Prompt, target.Text)
	if err != nil {
		return e.failed("rewrite the record", err)
	}
	if newText == "" || agents.IsCannotUnderstand(newText) {
		// Understanding failure: surface it, write nothing.
		return &Output{Reply: agents.CannotUnderstand}
	}

	if err := e.store.Update(ctx, target.ID, newText); err != nil {
		return e.failed("update the record", err)
	}
	if err := e.store.Persist(ctx); err != nil {
		return e.failed("persist the store", err)
	}
	return &Output{Reply: MsgUpdated, StoreChanged: true}
}

// runDelete resolves the deletion target to a short label first, so an
// unresolved request never reaches similarity search or the store. When the
// model empties the record entirely, the record is removed rather than kept
// as an empty shell.
func (e *Engine) runDelete(ctx context.Context, input *Input) *Output {
	label, err := e.categories.Extract(ctx, input.Prompt)
	if err != nil {
		return e.failed("work out what to delete", err)
	}
	if label == agents.CategoryUnknown {
		return &Output{Reply: agents.CannotUnderstand}
	}

	records, err := e.store.SimilaritySearch(ctx, strings.ToLower(label), 1)
	if err != nil {
		return e.failed("search memory", err)
	}
	if len(records) == 0 {
		return &Output{Reply: MsgNothingToDrop}
	}
	target := records[0]

	newText, err := e.mutator.Delete(ctx, input.Prompt, target.Text)
	if err != nil {
		return e.failed("rewrite the record", err)
	}
	if agents.IsCannotUnderstand(newText) {
		return &Output{Reply: agents.CannotUnderstand}
	}

	if newText == "" {
		if err := e.store.Remove(ctx, target.ID); err != nil {
			return e.failed("remove the record", err)
		}
		if err := e.store.Persist(ctx); err != nil {
			return e.failed("persist the store", err)
		}
		return &Output{Reply: MsgRecordRemoved, StoreChanged: true}
	}

	if err := e.store.Update(ctx, target.ID, newText); err != nil {
		return e.failed("update the record", err)
	}
	if err := e.store.Persist(ctx); err != nil {
		return e.failed("persist the store", err)
	}
	return &Output{Reply: MsgDeleted, StoreChanged: true}
}

// runOffTopic produces a plain conversational reply. No store access.
func (e *Engine) runOffTopic(ctx context.Context, input *Input, session *Session) *Output {
	messages := []llm.Message{llm.System(genericSystemPrompt)}
	messages = append(messages, session.Messages()...)
	messages = append(messages, llm.User(input.Prompt))

	reply, err := e.client.Invoke(ctx, messages)
	if err != nil {
		return e.failed("respond", err)
	}
	return &Output{Reply: strings.TrimSpace(reply)}
}

// failed wraps a mid-turn error into a reportable outcome. Persist errors
// keep their type so hosts can tell a dropped flush from a failed write.
func (e *Engine) failed(action string, err error) *Output {
	log.Printf("[ENGINE] Turn failed (%s): %v", action, err)

	var persistErr *memory.PersistError
	reply := MsgTurnFailed
	if errors.As(err, &persistErr) {
		reply = "Your change could not be saved to disk. Please try again."
	}
	return &Output{
		Reply: reply,
		Err:   fmt.Errorf("%s: %w", action, err),
	}
}

// recordTurn appends the exchange to the conversation history. History is
// conversational context only; losing it never fails the turn.
func (e *Engine) recordTurn(ctx context.Context, session *Session, prompt, reply string) {
	err := e.history.Append(ctx, session.ConversationID, llm.User(prompt), llm.Assistant(reply))
	if err != nil {
		log.Printf("[ENGINE] History append failed: %v", err)
	}
}
