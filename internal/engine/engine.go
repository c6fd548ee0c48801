// Package engine orchestrates query processing: cache lookup,
// classification, the SQL and document branches, merging, and caching.
package engine

import (
	"context"
	"log"
	"time"

	"github.com/ekamlabs/ekamquery/internal/cache"
	"github.com/ekamlabs/ekamquery/internal/domain"
	"github.com/ekamlabs/ekamquery/internal/repository"
	"github.com/ekamlabs/ekamquery/internal/sqlgen"
	"github.com/ekamlabs/ekamquery/internal/telemetry"
)

// Classifier assigns a query type. Never fails; degraded verdicts come
// back as unknown.
type Classifier interface {
	Classify(ctx context.Context, query string) domain.QueryClassification
}

// SQLRunner executes the text-to-SQL path.
type SQLRunner interface {
	Run(ctx context.Context, query string) (*domain.SQLResult, error)
}

// DocumentAnswerer executes the retrieval-and-extraction path.
type DocumentAnswerer interface {
	Answer(ctx context.Context, query string) ([]domain.DocumentAnswer, error)
}

// QueryLogger records processed queries for offline evaluation.
type QueryLogger interface {
	Create(ctx context.Context, entry repository.QueryLogEntry) (string, error)
}

// CorpusResetter wipes the vector index.
type CorpusResetter interface {
	Reset(ctx context.Context) error
}

// Engine is the per-process orchestrator. All dependencies are injected
// once at startup; requests share them concurrently.
type Engine struct {
	classifier Classifier
	sqlRunner  SQLRunner
	documents  DocumentAnswerer
	store      cache.Store
	queryLog   QueryLogger
	corpus     CorpusResetter
}

func New(classifier Classifier, sqlRunner SQLRunner, documents DocumentAnswerer, store cache.Store, queryLog QueryLogger, corpus CorpusResetter) *Engine {
	return &Engine{
		classifier: classifier,
		sqlRunner:  sqlRunner,
		documents:  documents,
		store:      store,
		queryLog:   queryLog,
		corpus:     corpus,
	}
}

// Process answers one query. Query submission always yields a response
// envelope: branch failures degrade to the SQL sentinel or an empty
// document list, never to a bare error. The only error returned is for
// empty input or a cancelled context.
func (e *Engine) Process(ctx context.Context, query string) (*domain.QueryResponse, error) {
	if domain.NormalizeQuery(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	start := time.Now()
	key := cache.Key(query)

	if cached, ok := e.store.Get(ctx, key); ok {
		response := cached.Clone()
		response.CacheStatus = domain.CacheHit
		response.PerformanceMetrics = domain.PerformanceMetrics{
			TotalTimeSeconds: time.Since(start).Seconds(),
		}
		e.logQuery(ctx, key, response, start)
		return response, nil
	}

	stages := make(map[string]float64)

	classifyStart := time.Now()
	classification := e.classifier.Classify(ctx, key)
	stages["classify"] = time.Since(classifyStart).Seconds()

	var sqlResult *domain.SQLResult
	var documentResults []domain.DocumentAnswer

	runSQL := classification.Type == domain.QueryTypeSQL || classification.Type == domain.QueryTypeHybrid
	// Unknown routes to the document path as the safe default.
	runDocs := !runSQL || classification.Type == domain.QueryTypeHybrid

	switch {
	case runSQL && runDocs:
		// Independent branches; one failing must not disturb the other.
		sqlDone := make(chan struct{})
		var sqlElapsed time.Duration
		go func() {
			defer close(sqlDone)
			sqlStart := time.Now()
			sqlResult = e.runSQLBranch(ctx, key)
			sqlElapsed = time.Since(sqlStart)
		}()
		docStart := time.Now()
		documentResults = e.runDocumentBranch(ctx, key)
		stages["document"] = time.Since(docStart).Seconds()
		<-sqlDone
		stages["sql"] = sqlElapsed.Seconds()
	case runSQL:
		sqlStart := time.Now()
		sqlResult = e.runSQLBranch(ctx, key)
		stages["sql"] = time.Since(sqlStart).Seconds()
	default:
		docStart := time.Now()
		documentResults = e.runDocumentBranch(ctx, key)
		stages["document"] = time.Since(docStart).Seconds()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if documentResults == nil {
		documentResults = []domain.DocumentAnswer{}
	}

	response := &domain.QueryResponse{
		QueryType:       classification.Type,
		SQLResult:       sqlResult,
		DocumentResults: documentResults,
		CacheStatus:     domain.CacheMiss,
		PerformanceMetrics: domain.PerformanceMetrics{
			TotalTimeSeconds: time.Since(start).Seconds(),
			PerStageSeconds:  stages,
		},
	}

	e.store.Put(ctx, key, response.Clone())
	e.logQuery(ctx, key, response, start)
	return response, nil
}

// ResetCorpus wipes the vector index and flushes the cache, bounding the
// staleness window of entries computed against the old corpus.
func (e *Engine) ResetCorpus(ctx context.Context) error {
	if err := e.corpus.Reset(ctx); err != nil {
		return err
	}
	e.store.Flush(ctx)
	return nil
}

func (e *Engine) runSQLBranch(ctx context.Context, query string) *domain.SQLResult {
	ctx, span := telemetry.StartSpan(ctx, "engine.sql")
	defer span.End()

	result, err := e.sqlRunner.Run(ctx, query)
	if err != nil {
		log.Printf("engine: sql branch failed for %q: %v", query, err)
		span.SetError(err)
		return sqlgen.Flatten(err)
	}
	return result
}

func (e *Engine) runDocumentBranch(ctx context.Context, query string) []domain.DocumentAnswer {
	ctx, span := telemetry.StartSpan(ctx, "engine.document")
	defer span.End()

	answers, err := e.documents.Answer(ctx, query)
	if err != nil {
		log.Printf("engine: document branch failed for %q: %v", query, err)
		span.SetError(err)
		return []domain.DocumentAnswer{}
	}
	return answers
}

func (e *Engine) logQuery(ctx context.Context, query string, response *domain.QueryResponse, start time.Time) {
	if e.queryLog == nil {
		return
	}

	entry := repository.QueryLogEntry{
		Query:          query,
		QueryType:      response.QueryType,
		CacheStatus:    response.CacheStatus,
		DocResultCount: len(response.DocumentResults),
		DurationMs:     time.Since(start).Milliseconds(),
	}
	if response.SQLResult != nil {
		entry.GeneratedQuery = response.SQLResult.GeneratedQuery
		if response.SQLResult.IsError() {
			entry.SQLErrored = true
		} else {
			entry.SQLRowCount = len(response.SQLResult.Rows)
		}
	}

	if _, err := e.queryLog.Create(ctx, entry); err != nil {
		log.Printf("engine: query log write failed: %v", err)
	}
}
