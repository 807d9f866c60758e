package transport

import (
	"encoding/json"
	"fmt"
	"net/http"

	"milkdirect-be/internal/assistant"
	"milkdirect-be/internal/logger"

	"go.uber.org/zap"
)

// Chat answers a single message from the keyword script.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeJSONError(w, "message is required", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reply":         assistant.ScriptedReply(req.Message),
		"quick_replies": assistant.QuickReplies,
	})
}

func sseWriteDelta(w http.ResponseWriter, flusher http.Flusher, content string) error {
	payload, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"delta": map[string]string{"content": content}},
		},
	})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// ChatStream proxies the conversation to the upstream gateway and re-emits
// its deltas as SSE. Gateway failures become an apology message so the chat
// window never dies with a broken stream.
func (h *Handler) ChatStream(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []assistant.Message `json:"messages"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Messages) == 0 {
		writeJSONError(w, "messages are required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	log := logger.FromCtx(r.Context())

	if !h.chat.Configured() {
		// No gateway: answer the last user message from the script.
		last := req.Messages[len(req.Messages)-1].Content
		_ = sseWriteDelta(w, flusher, assistant.ScriptedReply(last))
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
		return
	}

	_, err := h.chat.StreamChat(r.Context(), req.Messages, func(delta string) error {
		return sseWriteDelta(w, flusher, delta)
	})
	if err != nil {
		log.Warn("chat gateway stream failed", zap.Error(err))
		_ = sseWriteDelta(w, flusher, assistant.Apology)
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}
