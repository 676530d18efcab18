package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testFeed = `# "first_seen_utc","sha256_hash","reporter","file_type_guess","signature"
"2024-01-10 11:00:00","559aead08264d5795d3909718cdd05abd49572e84fe55590eef31a88a08fdffd","alice","exe","AgentTesla"
"2024-01-10 12:00:00","bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb","bob","dll","RedLineStealer"
`

// testFeedKnownContent is file content whose SHA-256 is the first digest
// in testFeed.
const testFeedKnownContent = "A"

// fakeRemote serves both the timestamp API and the bulk feed export.
type fakeRemote struct {
	srv       *httptest.Server
	feed      string
	apiBody   string
	feedDown  bool
	queryDown bool
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	r := &fakeRemote{
		feed:    testFeed,
		apiBody: `{"query_status": "ok", "data": [{"first_seen": "2024-01-10 12:00:00"}]}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", func(w http.ResponseWriter, req *http.Request) {
		if r.queryDown {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(r.apiBody))
	})
	mux.HandleFunc("/export/", func(w http.ResponseWriter, req *http.Request) {
		if r.feedDown {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(r.feed))
	})
	r.srv = httptest.NewServer(mux)
	t.Cleanup(r.srv.Close)
	return r
}

// writeTestConfig writes a yaml config pointing at the fake remote and
// a fresh data directory, returning the config path and data dir.
func writeTestConfig(t *testing.T, remote *fakeRemote) (configPath, dataDir string) {
	t.Helper()
	dir := t.TempDir()
	dataDir = filepath.Join(dir, "data")

	cfg := "api_url: " + remote.srv.URL + "/api/\n" +
		"feed_url: " + remote.srv.URL + "/export/\n" +
		"data_dir: " + dataDir + "\n" +
		"timeout_seconds: 2\n"

	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0644))
	return configPath, dataDir
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
