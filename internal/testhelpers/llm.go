package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ChatCall is one request received by a FakeChatServer
type ChatCall struct {
	Model          string            `json:"model"`
	Temperature    float64           `json:"temperature"`
	Messages       []json.RawMessage `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

// FakeChatServer imitates an OpenAI-compatible chat completions endpoint.
// Replies are served in order; the last one repeats once the queue is drained.
type FakeChatServer struct {
	*httptest.Server

	mu      sync.Mutex
	replies []string
	status  int
	calls   []ChatCall
}

// NewFakeChatServer starts a server answering with the given message contents
func NewFakeChatServer(t *testing.T, replies ...string) *FakeChatServer {
	t.Helper()

	f := &FakeChatServer{replies: replies, status: http.StatusOK}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

// FailWith makes every subsequent request fail with the given status
func (f *FakeChatServer) FailWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// Calls returns the requests received so far
func (f *FakeChatServer) Calls() []ChatCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ChatCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeChatServer) handle(w http.ResponseWriter, r *http.Request) {
	var call ChatCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	status := f.status
	reply := ""
	if len(f.replies) > 0 {
		reply = f.replies[0]
		if len(f.replies) > 1 {
			f.replies = f.replies[1:]
		}
	}
	f.mu.Unlock()

	if status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": reply}},
		},
	})
}
