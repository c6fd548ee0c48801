//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekamlabs/ekamquery/internal/api/handlers"
	"github.com/ekamlabs/ekamquery/internal/cache"
	"github.com/ekamlabs/ekamquery/internal/catalog"
	"github.com/ekamlabs/ekamquery/internal/classifier"
	"github.com/ekamlabs/ekamquery/internal/engine"
	"github.com/ekamlabs/ekamquery/internal/extract"
	"github.com/ekamlabs/ekamquery/internal/ingest"
	"github.com/ekamlabs/ekamquery/internal/repository"
	"github.com/ekamlabs/ekamquery/internal/retriever"
	"github.com/ekamlabs/ekamquery/internal/server"
	"github.com/ekamlabs/ekamquery/internal/sqlgen"
	"github.com/ekamlabs/ekamquery/internal/testutil"
)

// fakeModel backs every inference capability with deterministic behavior so
// end-to-end runs need no model server.
type fakeModel struct {
	// GeneratedSQL is what Generate returns for any prompt.
	GeneratedSQL string
}

// Embed maps text onto a fixed direction per topic keyword, so retrieval
// ranks chunks sharing keywords with the query first.
func (m *fakeModel) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 1536)
	lower := strings.ToLower(text)
	keywords := []string{"vacation", "salary", "onboarding", "security"}
	matched := false
	for i, kw := range keywords {
		if strings.Contains(lower, kw) {
			v[i] = 1
			matched = true
		}
	}
	if !matched {
		v[len(keywords)] = 1
	}
	return v, nil
}

func (m *fakeModel) Generate(_ context.Context, _ string) (string, error) {
	return m.GeneratedSQL, nil
}

func (m *fakeModel) ClassifyZeroShot(_ context.Context, text string, labels []string) (map[string]float64, error) {
	lower := strings.ToLower(text)
	scores := make(map[string]float64, len(labels))
	for _, label := range labels {
		scores[label] = 0.2
	}
	if strings.Contains(lower, "average") || strings.Contains(lower, "compare") {
		scores[classifier.LabelDatabaseQuery] = 0.8
	}
	if strings.Contains(lower, "policy") || strings.Contains(lower, "compare") {
		scores[classifier.LabelDocumentSearch] = 0.8
	}
	return scores, nil
}

// ExtractAnswer returns the first sentence of the passage with a fixed
// confidence.
func (m *fakeModel) ExtractAnswer(_ context.Context, _, passage string) (string, float64, error) {
	sentence := passage
	if idx := strings.IndexByte(passage, '.'); idx > 0 {
		sentence = passage[:idx+1]
	}
	return strings.TrimSpace(sentence), 0.9, nil
}

// TestEnv holds all resources needed for end-to-end tests
type TestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	Pool       *pgxpool.Pool
	Server     *httptest.Server
	Model      *fakeModel
	Cache      *cache.MemoryStore
	HTTPClient *http.Client
}

// SetupTestEnv starts a pgvector container and an in-process server wired
// with the fake model.
func SetupTestEnv(t *testing.T) *TestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	model := &fakeModel{GeneratedSQL: "SELECT name FROM employees ORDER BY id"}

	catalogSvc := catalog.NewService(catalog.NewPgIntrospector(pool))
	chunkRepo := repository.NewChunkRepository(pool)
	queryLogRepo := repository.NewQueryLogRepository(pool)

	store := cache.NewMemoryStore(5*time.Minute, 1000)

	ingestSvc := ingest.NewService(extract.NewExtractor(), model, chunkRepo, nil, ingest.DefaultChunkConfig())

	queryEngine := engine.New(
		classifier.New(model, catalogSvc),
		sqlgen.NewService(model, catalogSvc, sqlgen.NewPgExecutor(pool, 10*time.Second, 500)),
		retriever.NewService(model, chunkRepo, model, 5, 0.1),
		store,
		queryLogRepo,
		chunkRepo,
	)

	router := server.NewRouter(server.RouterConfig{
		QueryHandler:     handlers.NewQueryHandler(queryEngine),
		IngestionHandler: handlers.NewIngestionHandler(ingestSvc),
		SchemaHandler:    handlers.NewSchemaHandler(catalogSvc),
	})

	return &TestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		Pool:       pool,
		Server:     httptest.NewServer(router),
		Model:      model,
		Cache:      store,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *TestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// SeedEmployees creates the fixture table the fake generator's SQL targets.
func (e *TestEnv) SeedEmployees() {
	_, err := e.Pool.Exec(e.Ctx, `
		CREATE TABLE IF NOT EXISTS employees (id SERIAL PRIMARY KEY, name TEXT NOT NULL, salary NUMERIC);
		INSERT INTO employees (name, salary) VALUES ('Asha', 90000), ('Borja', 80000);
	`)
	if err != nil {
		e.T.Fatalf("failed to seed employees: %v", err)
	}
}

func (e *TestEnv) do(req *http.Request) (int, []byte) {
	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		e.T.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response: %v", err)
	}
	return resp.StatusCode, body
}

// Get performs a GET request against the test server.
func (e *TestEnv) Get(path string) (int, []byte) {
	req, err := http.NewRequest(http.MethodGet, e.Server.URL+path, nil)
	if err != nil {
		e.T.Fatalf("failed to create request: %v", err)
	}
	return e.do(req)
}

// PostJSON performs a POST request with a JSON body.
func (e *TestEnv) PostJSON(path string, body interface{}) (int, []byte) {
	data, err := json.Marshal(body)
	if err != nil {
		e.T.Fatalf("failed to marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, e.Server.URL+path, bytes.NewReader(data))
	if err != nil {
		e.T.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

// Delete performs a DELETE request against the test server.
func (e *TestEnv) Delete(path string) (int, []byte) {
	req, err := http.NewRequest(http.MethodDelete, e.Server.URL+path, nil)
	if err != nil {
		e.T.Fatalf("failed to create request: %v", err)
	}
	return e.do(req)
}

// UploadFiles posts named text files to the ingestion endpoint.
func (e *TestEnv) UploadFiles(files map[string]string) (int, []byte) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			e.T.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			e.T.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		e.T.Fatalf("failed to close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, e.Server.URL+"/ingest", &buf)
	if err != nil {
		e.T.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return e.do(req)
}

// mustUnmarshal decodes JSON or fails the test.
func mustUnmarshal(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("failed to unmarshal %s: %v", string(data), err)
	}
}
