package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLM answers every completion with sampleBlock and remembers the last
// user message of each request.
type fakeLLM struct {
	mu    sync.Mutex
	users []string
}

func (f *fakeLLM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if n := len(req.Messages); n > 0 {
		f.mu.Lock()
		f.users = append(f.users, req.Messages[n-1].Content)
		f.mu.Unlock()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"content": sampleBlock}}},
	})
}

func (f *fakeLLM) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.users...)
}

// useTestEnv points every command at a fake LLM and a temporary chat store
func useTestEnv(t *testing.T) *fakeLLM {
	t.Helper()
	llm := &fakeLLM{}
	srv := httptest.NewServer(llm)
	t.Cleanup(srv.Close)

	t.Setenv("BLOCKIFY_LLM_BASE_URL", srv.URL)
	t.Setenv("BLOCKIFY_LLM_API_PATH", "/v1/chat/completions")
	t.Setenv("BLOCKIFY_STORE_BACKEND", "sqlite")
	t.Setenv("BLOCKIFY_STORE_PATH", filepath.Join(t.TempDir(), "chats.db"))
	t.Setenv("BLOCKIFY_NOTIFY_BACKEND", "none")
	t.Setenv("BLOCKIFY_CHUNK_SIZE", "2000")
	t.Setenv("BLOCKIFY_CHUNK_OVERLAP", "200")
	t.Setenv("BLOCKIFY_RATE_LIMIT", "0")
	return llm
}

// run executes the CLI with args and returns stdout and stderr
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	chatFlag, templateFlag, messageFlag = "", "", ""
	baseURLFlag, modelFlag, verbose = "", "", false
	sendHTML, showRaw, showHTML, clearYes = false, false, false, false
	renderFormat, renderPage, renderWidth = "html", false, 80

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

var chatLine = regexp.MustCompile(`chat ([0-9a-f-]{36})`)

func chatID(t *testing.T, stderr string) string {
	t.Helper()
	m := chatLine.FindStringSubmatch(stderr)
	require.NotNil(t, m, "no chat id in %q", stderr)
	return m[1]
}

func TestSend_FromArgs(t *testing.T) {
	llm := useTestEnv(t)

	stdout, stderr, err := run(t, "", "send", "Our refund window is 30 days.")
	require.NoError(t, err)

	assert.Contains(t, stdout, "<ideablock>")
	chatID(t, stderr)
	require.Len(t, llm.requests(), 1)
	assert.Contains(t, llm.requests()[0], "Our refund window is 30 days.")
}

func TestSend_FromStdin(t *testing.T) {
	llm := useTestEnv(t)

	_, _, err := run(t, "  text piped in  \n", "send")
	require.NoError(t, err)
	require.Len(t, llm.requests(), 1)
	assert.Contains(t, llm.requests()[0], "text piped in")
}

func TestSend_EmptyInput(t *testing.T) {
	useTestEnv(t)

	_, _, err := run(t, "   ", "send")
	assert.ErrorContains(t, err, "nothing to send")
}

func TestSend_HTMLIsSanitized(t *testing.T) {
	useTestEnv(t)

	stdout, _, err := run(t, "", "send", "--html", "policy text")
	require.NoError(t, err)

	assert.Contains(t, stdout, `class="ideablock-card"`)
	assert.Contains(t, stdout, "Refund window")
	assert.NotContains(t, stdout, "<ideablock>")
}

func TestSend_ContinuesChat(t *testing.T) {
	llm := useTestEnv(t)

	_, stderr, err := run(t, "", "send", "first message")
	require.NoError(t, err)
	id := chatID(t, stderr)

	_, stderr, err = run(t, "", "send", "--chat", id[:8], "second message")
	require.NoError(t, err)
	assert.Equal(t, id, chatID(t, stderr))

	reqs := llm.requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[1], "second message")

	stdout, _, err := run(t, "", "chats", "show", id)
	require.NoError(t, err)
	assert.Contains(t, stdout, "first message")
	assert.Contains(t, stdout, "second message")
	assert.Equal(t, 2, strings.Count(stdout, "] Blockify"))
}

func TestSend_ReportsChunkProgress(t *testing.T) {
	llm := useTestEnv(t)
	t.Setenv("BLOCKIFY_CHUNK_SIZE", "10")
	t.Setenv("BLOCKIFY_CHUNK_OVERLAP", "0")

	_, stderr, err := run(t, "", "send", "abcdefghijklmnopqrstuvwxy")
	require.NoError(t, err)

	assert.Len(t, llm.requests(), 3)
	assert.Contains(t, stderr, "processing chunk")
	assert.Contains(t, stderr, "of 3")
}

func TestSend_FromTemplate(t *testing.T) {
	useTestEnv(t)

	_, stderr, err := run(t, "", "send", "--template", "ingest", "handbook text")
	require.NoError(t, err)
	id := chatID(t, stderr)

	stdout, _, err := run(t, "", "chats")
	require.NoError(t, err)
	assert.Contains(t, stdout, id[:8])
	assert.Contains(t, stdout, "ingest")
}

func TestChats_Lifecycle(t *testing.T) {
	useTestEnv(t)

	_, stderr, err := run(t, "", "send", "a message about shipping")
	require.NoError(t, err)
	id := chatID(t, stderr)

	stdout, _, err := run(t, "", "chats", "rename", id[:8], "Shipping", "policy")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"Shipping policy"`)

	stdout, _, err = run(t, "", "chats", "star", id[:8])
	require.NoError(t, err)
	assert.Contains(t, stdout, "Starred")

	stdout, _, err = run(t, "", "chats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "★")
	assert.Contains(t, stdout, "Shipping policy")

	_, _, err = run(t, "", "chats", "unstar", id[:8])
	require.NoError(t, err)
	stdout, _, err = run(t, "", "chats")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "★")

	stdout, _, err = run(t, "", "chats", "show", "--html", id[:8])
	require.NoError(t, err)
	assert.Contains(t, stdout, `class="ideablock-card"`)

	stdout, _, err = run(t, "", "chats", "show", "--raw", id[:8])
	require.NoError(t, err)
	assert.Contains(t, stdout, "<ideablock>")

	_, _, err = run(t, "", "chats", "delete", id[:8])
	require.NoError(t, err)
	stdout, _, err = run(t, "", "chats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No saved chats.")
}

func TestChats_Clear(t *testing.T) {
	useTestEnv(t)

	for _, text := range []string{"one", "two"} {
		_, _, err := run(t, "", "send", text)
		require.NoError(t, err)
	}

	_, _, err := run(t, "", "chats", "clear")
	assert.ErrorContains(t, err, "--yes")

	_, _, err = run(t, "", "chats", "clear", "--yes")
	require.NoError(t, err)
	stdout, _, err := run(t, "", "chats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No saved chats.")
}

func TestChats_UnknownID(t *testing.T) {
	useTestEnv(t)

	_, _, err := run(t, "", "chats", "show", "deadbeef")
	assert.Error(t, err)
}

func TestTemplates_List(t *testing.T) {
	useTestEnv(t)

	stdout, _, err := run(t, "", "templates")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ingest")
	assert.Contains(t, stdout, "distill")
}

func TestConfig_ReadOnly(t *testing.T) {
	useTestEnv(t)
	t.Setenv("BLOCKIFY_MODEL", "test-model")

	stdout, _, err := run(t, "", "config", "get", "model")
	require.NoError(t, err)
	assert.Equal(t, "model: test-model\n", stdout)

	stdout, _, err = run(t, "", "config")
	require.NoError(t, err)
	assert.Contains(t, stdout, "/v1/chat/completions")
	assert.Contains(t, stdout, "test-model (env)")

	stdout, _, err = run(t, "", "config", "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration is valid.")

	_, _, err = run(t, "", "config", "get", "no_such_key")
	assert.Error(t, err)
}

func TestConfig_CheckReportsProblems(t *testing.T) {
	useTestEnv(t)
	t.Setenv("BLOCKIFY_TEMPERATURE", "5")

	_, _, err := run(t, "", "config", "check")
	assert.ErrorContains(t, err, "temperature")

	_, _, err = run(t, "", "send", "text")
	assert.ErrorContains(t, err, "temperature")
}

func TestRootFlagsOverrideConfig(t *testing.T) {
	useTestEnv(t)

	stdout, _, err := run(t, "", "config", "--model", "flag-model")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Model:    flag-model")
}
