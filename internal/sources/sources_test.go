package sources

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/changecast/internal/fetch"
)

const sourcesYAML = `
sources:
  - id: claude-code
    name: Claude Code
    url: https://example.com/claude/CHANGELOG.md
  - id: docs
    name: Docs Site
    url: https://example.com/docs/changelog
    kind: html
  - id: local
    url: /srv/repo
    kind: git
    path: docs/CHANGELOG.md
    active: false
`

// stubRetriever serves markdown per source id and counts calls.
type stubRetriever struct {
	mu       sync.Mutex
	markdown map[string]string
	fail     map[string]error
	calls    map[string]int
}

func (s *stubRetriever) Retrieve(_ context.Context, e Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[e.ID]++
	if err := s.fail[e.ID]; err != nil {
		return "", err
	}
	return s.markdown[e.ID], nil
}

func (s *stubRetriever) set(id, markdown string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markdown[id] = markdown
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	entries, err := ParseEntries([]byte(sourcesYAML))
	require.NoError(t, err)
	return NewRegistry(entries)
}

func TestParseEntries(t *testing.T) {
	t.Parallel()

	entries, err := ParseEntries([]byte(sourcesYAML))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, KindMarkdown, entries[0].Kind)
	assert.True(t, entries[0].IsActive())
	assert.Equal(t, KindHTML, entries[1].Kind)
	assert.Equal(t, "local", entries[2].Name, "name defaults to id")
	assert.False(t, entries[2].IsActive())
	assert.Equal(t, "docs/CHANGELOG.md", entries[2].Path)
}

func TestParseEntries_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		wantErr string
	}{
		"bad yaml":     {input: "sources: [", wantErr: "parsing sources file"},
		"missing id":   {input: "sources:\n  - url: https://x\n", wantErr: "id is required"},
		"missing url":  {input: "sources:\n  - id: a\n", wantErr: "url is required"},
		"duplicate":    {input: "sources:\n  - id: a\n    url: u\n  - id: a\n    url: v\n", wantErr: "duplicate id"},
		"unknown kind": {input: "sources:\n  - id: a\n    url: u\n    kind: rss\n", wantErr: "unknown kind"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseEntries([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEntries(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sources.yml")
	require.NoError(t, os.WriteFile(path, []byte(sourcesYAML), 0o644))

	entries, err := LoadEntries(path)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	_, err = LoadEntries(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestRegistry_Record(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	_, src, ok := r.Lookup("claude-code")
	require.True(t, ok)
	assert.Nil(t, src.LastVersion)
	assert.Nil(t, src.LastCheckedAt)

	prev, changed := r.Record("claude-code", "1.0.0", at)
	assert.Empty(t, prev)
	assert.True(t, changed)

	prev, changed = r.Record("claude-code", "1.0.0", at.Add(time.Minute))
	assert.Equal(t, "1.0.0", prev)
	assert.False(t, changed)

	_, changed = r.Record("claude-code", "", at.Add(2*time.Minute))
	assert.False(t, changed)

	_, src, _ = r.Lookup("claude-code")
	require.NotNil(t, src.LastVersion)
	assert.Equal(t, "1.0.0", *src.LastVersion)
	assert.Equal(t, "2025-03-01T12:02:00Z", *src.LastCheckedAt)

	_, _, ok = r.Lookup("nope")
	assert.False(t, ok)
}

func TestServer_Routes(t *testing.T) {
	t.Parallel()
	retriever := &stubRetriever{
		markdown: map[string]string{"claude-code": "## 1.0.1\n- Fixed a bug\n\n## 1.0.0\n- Added x\n"},
		fail:     map[string]error{"docs": errors.New("connection refused")},
	}
	srv := httptest.NewServer(NewServer(newTestRegistry(t), retriever, nil).Handler())
	t.Cleanup(srv.Close)

	tests := map[string]struct {
		path       string
		wantStatus int
		check      func(t *testing.T, body []byte)
	}{
		"list": {
			path:       "/api/sources",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var list []Source
				require.NoError(t, json.Unmarshal(body, &list))
				require.Len(t, list, 3)
				assert.Equal(t, "claude-code", list[0].ID)
				assert.False(t, list[2].IsActive)
				assert.Contains(t, string(body), `"last_version":null`)
			},
		},
		"changelog": {
			path:       "/api/sources/claude-code/changelog",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp ChangelogResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Contains(t, resp.Markdown, "## 1.0.1")
				assert.Equal(t, "Claude Code", resp.Source.Name)
				require.NotNil(t, resp.Source.LastVersion)
				assert.Equal(t, "1.0.1", *resp.Source.LastVersion)
				assert.NotNil(t, resp.Source.LastCheckedAt)
			},
		},
		"unknown source": {
			path:       "/api/sources/nope/changelog",
			wantStatus: http.StatusNotFound,
		},
		"upstream failure": {
			path:       "/api/sources/docs/changelog",
			wantStatus: http.StatusBadGateway,
			check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "connection refused")
			},
		},
		"health": {
			path:       "/healthz",
			wantStatus: http.StatusOK,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestClient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	retriever := &stubRetriever{
		markdown: map[string]string{
			"claude-code": "## 2.0.0\n- Added y\n",
			"local":       "## 0.1.0\n- never fetched, inactive\n",
		},
		fail: map[string]error{"docs": errors.New("timeout")},
	}
	srv := httptest.NewServer(NewServer(newTestRegistry(t), retriever, nil).Handler())
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL+"/", WithFetcher(fetch.NewClient()), WithConcurrency(2))

	list, err := client.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Len(t, Active(list), 2)

	resp, err := client.FetchChangelog(ctx, "claude-code")
	require.NoError(t, err)
	assert.Equal(t, "## 2.0.0\n- Added y\n", resp.Markdown)

	_, err = client.FetchChangelog(ctx, "nope")
	var statusErr *fetch.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	all, err := client.FetchAllActive(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "failed and inactive sources are skipped")
	assert.Equal(t, SourceChangelog{SourceID: "claude-code", SourceName: "Claude Code", Markdown: "## 2.0.0\n- Added y\n"}, all[0])

	retriever.mu.Lock()
	assert.Zero(t, retriever.calls["local"])
	retriever.mu.Unlock()
}

func TestClient_ListUnavailable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL)
	_, err := client.List(context.Background())
	assert.Error(t, err)
	_, err = client.FetchAllActive(context.Background())
	assert.Error(t, err)
}

func TestChecker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	retriever := &stubRetriever{
		markdown: map[string]string{
			"claude-code": "## 1.0.0\n- Added x\n",
			"docs":        "no versions here",
		},
	}
	var events []UpdateEvent
	checker := NewChecker(newTestRegistry(t), retriever, func(e UpdateEvent) {
		events = append(events, e)
	}, nil)

	checker.CheckOnce(ctx)
	assert.Empty(t, events, "first check sets the baseline")

	checker.CheckOnce(ctx)
	assert.Empty(t, events)

	retriever.set("claude-code", "## 1.1.0\n- Added y\n\n## 1.0.0\n- Added x\n")
	checker.CheckOnce(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, EventVersionChanged, events[0].Type)
	assert.Equal(t, "claude-code", events[0].SourceID)
	assert.Equal(t, "1.0.0", events[0].PreviousVersion)
	assert.Equal(t, "1.1.0", events[0].LatestVersion)

	retriever.mu.Lock()
	assert.Zero(t, retriever.calls["local"], "inactive sources are not checked")
	retriever.mu.Unlock()
}

func TestHub_BroadcastsToSubscribers(t *testing.T) {
	t.Parallel()
	retriever := &stubRetriever{markdown: map[string]string{}}
	server := NewServer(newTestRegistry(t), retriever, nil)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/updates"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return server.Hub().Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	server.Hub().Broadcast(UpdateEvent{Type: EventVersionChanged, SourceID: "claude-code", LatestVersion: "9.9.9"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got UpdateEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "9.9.9", got.LatestVersion)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return server.Hub().Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestKindRetriever(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/CHANGELOG.md":
			_, _ = w.Write([]byte("## 3.0.0\n- Added z\n"))
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body><h2>3.1.0</h2><ul><li>Fixed a crash</li></ul></body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	repo := t.TempDir()
	r, err := gogit.PlainInit(repo, false)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "CHANGELOG.md"), []byte("## 0.9.0\n- Added git\n"), 0o644))
	_, err = wt.Add("CHANGELOG.md")
	require.NoError(t, err)
	_, err = wt.Commit("init", &gogit.CommitOptions{Author: &object.Signature{Name: "T", Email: "t@t", When: time.Now()}})
	require.NoError(t, err)

	noWait := fetch.WithSleeper(func(context.Context, time.Duration) error { return nil })
	retriever := KindRetriever{Fetcher: fetch.NewClient(noWait), MaxAttempts: 2}

	tests := map[string]struct {
		entry   Entry
		want    string
		wantErr bool
	}{
		"markdown": {entry: Entry{Kind: KindMarkdown, URL: upstream.URL + "/CHANGELOG.md"}, want: "## 3.0.0"},
		"html":     {entry: Entry{Kind: KindHTML, URL: upstream.URL + "/page"}, want: "## 3.1.0\n- Fixed a crash"},
		"git":      {entry: Entry{Kind: KindGit, URL: repo}, want: "## 0.9.0"},
		"missing":  {entry: Entry{Kind: KindMarkdown, URL: upstream.URL + "/gone"}, wantErr: true},
		"unknown":  {entry: Entry{Kind: "rss", URL: upstream.URL}, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := retriever.Retrieve(ctx, tt.entry)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, got, tt.want)
		})
	}
}
