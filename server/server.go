// Package server exposes the assistant over a websocket chat endpoint.
// Each connection is one conversation; messages are JSON frames carrying
// the prompt and, optionally, an uploaded document's text.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/becomeliminal/recall-go-sdk/engine"
)

// maxDocumentBytes bounds an inline upload. Bigger documents should not
// travel over the chat socket.
const maxDocumentBytes = 1 << 20

// maxFrameBytes caps an inbound frame at the socket: the document limit
// plus headroom for the prompt and JSON framing. Oversized frames are cut
// off during the read instead of being buffered whole.
const maxFrameBytes = maxDocumentBytes + 64<<10

// Request is one inbound chat frame.
type Request struct {
	Prompt   string `json:"prompt"`
	Document string `json:"document,omitempty"`
}

// Response is one outbound chat frame.
type Response struct {
	Intent       string `json:"intent"`
	Reply        string `json:"reply"`
	StoreChanged bool   `json:"store_changed,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Server serves the chat endpoint.
type Server struct {
	engine   *engine.Engine
	upgrader websocket.Upgrader
}

// New creates a server around an engine.
func New(eng *engine.Engine) *Server {
	return &Server{
		engine: eng,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Handler returns the HTTP handler: GET /chat upgrades to the websocket,
// GET /healthz reports liveness.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// ListenAndServe runs the server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[SERVER] Listening on %s", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SERVER] Upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	// One websocket connection = one conversation.
	conversationID := uuid.NewString()
	log.Printf("[SERVER] Conversation %s connected", conversationID)

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[SERVER] Conversation %s read error: %v", conversationID, err)
			}
			return
		}

		resp := s.runTurn(r.Context(), conversationID, req)
		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("[SERVER] Conversation %s write error: %v", conversationID, err)
			return
		}
	}
}

// runTurn drives the engine once. A failed turn becomes an error frame;
// the connection and conversation stay usable.
func (s *Server) runTurn(ctx context.Context, conversationID string, req Request) Response {
	if len(req.Document) > maxDocumentBytes {
		return Response{Error: "document too large"}
	}

	out, err := s.engine.Run(ctx, &engine.Input{
		ConversationID: conversationID,
		Prompt:         req.Prompt,
		Document:       req.Document,
	})
	if err != nil {
		return Response{Error: err.Error()}
	}

	resp := Response{
		Intent:       out.Intent.String(),
		Reply:        out.Reply,
		StoreChanged: out.StoreChanged,
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	return resp
}
