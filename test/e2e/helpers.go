//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/calgary-pulse/pulseqa/internal/api/handlers"
	"github.com/calgary-pulse/pulseqa/internal/repository"
	"github.com/calgary-pulse/pulseqa/internal/server"
	"github.com/calgary-pulse/pulseqa/internal/service"
	"github.com/calgary-pulse/pulseqa/internal/storage"
	"github.com/calgary-pulse/pulseqa/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	ProfileDir   string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with a database container,
// fixture profiles on disk, and a running server.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	profileDir := writeFixtureProfiles(t)

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, profileDir, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		ProfileDir:   profileDir,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// wordHashEmbedder produces deterministic embeddings from word hashes, so
// texts sharing vocabulary land near each other without an external API.
type wordHashEmbedder struct{}

func (wordHashEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, 1536)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, ".,?!:;()")))
		vec[h.Sum32()%1536] += 1
	}
	return vec, nil
}

// echoGenerator returns the first context line so answers stay grounded in
// the retrieved data without an external model.
type echoGenerator struct{}

func (echoGenerator) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[1]") {
			return "Based on the indexed data: " + line, nil
		}
	}
	return "Based on the indexed data.", nil
}

// startServer starts the HTTP server with the full service graph
func startServer(t *testing.T, pool *pgxpool.Pool, profileDir string, port int) (string, func()) {
	chunkRepo := repository.NewChunkRepository(pool)
	communityRepo := repository.NewCommunityRepository(pool)
	indexJobRepo := repository.NewIndexJobRepository(pool)
	questionLogRepo := repository.NewQuestionLogRepository(pool)

	profileSource := storage.NewLocalProfileSource(profileDir)
	chunker := service.NewChunker(service.ChunkerConfig{})
	chunkStore := service.NewChunkStoreAdapter(wordHashEmbedder{}, chunkRepo)
	indexerSvc := service.NewIndexerService(profileSource, chunkStore, chunker, communityRepo, indexJobRepo)
	retriever := service.NewRetriever(chunkStore, communityRepo, service.RetrieverConfig{})
	assembler := service.NewAssembler(service.AssemblerConfig{})
	answerSvc := service.NewAnswerService(retriever, assembler, echoGenerator{}, service.AnswerConfig{}).
		WithQuestionLog(questionLogRepo)

	cfg := server.RouterConfig{
		AskHandler:       handlers.NewAskHandler(answerSvc),
		IndexHandler:     handlers.NewIndexHandler(indexerSvc),
		CommunityHandler: handlers.NewCommunityHandler(communityRepo),
	}

	router := server.NewRouter(cfg)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// writeFixtureProfiles writes profile documents for two communities plus one
// malformed profile used by the error-isolation test.
func writeFixtureProfiles(t *testing.T) string {
	dir := t.TempDir()

	profiles := map[string]string{
		"tuxedo-park.json": `{
			"slug": "tuxedo-park",
			"name": "TUXEDO PARK",
			"sector": "CENTRE",
			"description": "An inner-city community north of downtown.",
			"hero": {"population": 5200, "safety_percentile": 10},
			"safety": {
				"percentile": 10,
				"crime": {"count": 1365, "per_1000": 50.9, "city_avg_per_1000": 31.2, "yoy_pct": 6.8},
				"breakdown": {"property": {"pct": 55}, "violent": {"pct": 45}}
			},
			"housing": {"assessed_value": 452000, "property_count": 2100},
			"transit": {"stop_count": 24, "routes": [{"route": "2", "destination": "Downtown"}]}
		}`,
		"sunnyside.json": `{
			"slug": "sunnyside",
			"name": "SUNNYSIDE",
			"sector": "CENTRE",
			"description": "A walkable riverside community.",
			"hero": {"population": 4100, "safety_percentile": 62},
			"safety": {
				"percentile": 62,
				"crime": {"count": 310, "per_1000": 18.4, "city_avg_per_1000": 31.2, "yoy_pct": -2.1}
			},
			"schools": {"count": 2, "avg_rating": 7.1, "rated_count": 2, "list": [
				{"name": "Sunnyside School", "board": "CBE", "level": "Elementary", "rating": 7.1}
			]}
		}`,
		"broken-acres.json": `{
			"slug": "broken-acres",
			"name": "BROKEN ACRES",
			"safety": {"percentile": 140}
		}`,
	}

	for name, doc := range profiles {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644); err != nil {
			t.Fatalf("failed to write fixture %s: %v", name, err)
		}
	}
	return dir
}
