// Package classifier assigns incoming queries to the SQL path, the document
// path, or both.
package classifier

import (
	"context"
	"log"
	"strings"

	"github.com/ekamlabs/ekamquery/internal/domain"
)

// Zero-shot label set. The scores returned by the model are thresholded
// into a QueryType.
const (
	LabelDatabaseQuery  = "database query"
	LabelDocumentSearch = "document search"

	// Threshold a label score must exceed to select its path.
	Threshold = 0.5

	// ruleConfidence is assigned when the rule pass short-circuits.
	ruleConfidence = 0.9
)

// ZeroShotClassifier scores text against candidate labels.
type ZeroShotClassifier interface {
	ClassifyZeroShot(ctx context.Context, text string, labels []string) (map[string]float64, error)
}

// SchemaSource provides the current database schema for token matching.
type SchemaSource interface {
	Discover(ctx context.Context) (*domain.SchemaDescription, error)
}

// Classifier implements the two-stage policy: a deterministic rule pass
// that can short-circuit on strong lexical cues, then zero-shot scoring
// when the rules are inconclusive. It never fails a request; any error
// degrades the verdict to unknown.
type Classifier struct {
	zeroShot ZeroShotClassifier
	schema   SchemaSource
}

func New(zeroShot ZeroShotClassifier, schema SchemaSource) *Classifier {
	return &Classifier{zeroShot: zeroShot, schema: schema}
}

// sqlPrefixes are query openings that almost always want tabular data.
var sqlPrefixes = []string{
	"list all",
	"list the",
	"show me",
	"show all",
	"how many",
	"count ",
	"select ",
	"top ",
	"average ",
	"sum of",
	"total number",
	"what is the number of",
}

// documentCues are terms that point at the uploaded corpus rather than
// the database.
var documentCues = []string{
	"summarize",
	"summary",
	"document",
	"report",
	"uploaded",
	"file",
	"pdf",
	"according to",
	"mentioned",
	"explain",
}

// Classify assigns a query type. Deterministic for identical inputs and
// schema state; input is normalized first, so the verdict is invariant
// under repeated normalization.
func (c *Classifier) Classify(ctx context.Context, query string) domain.QueryClassification {
	q := domain.NormalizeQuery(query)
	if q == "" {
		return domain.QueryClassification{Type: domain.QueryTypeUnknown, Confidence: 0}
	}

	sqlCue := hasAnyPrefix(q, sqlPrefixes) || c.matchesSchemaToken(ctx, q)
	docCue := containsAny(q, documentCues)

	switch {
	case sqlCue && !docCue:
		return domain.QueryClassification{Type: domain.QueryTypeSQL, Confidence: ruleConfidence}
	case docCue && !sqlCue:
		return domain.QueryClassification{Type: domain.QueryTypeDocument, Confidence: ruleConfidence}
	}

	scores, err := c.zeroShot.ClassifyZeroShot(ctx, q, []string{LabelDatabaseQuery, LabelDocumentSearch})
	if err != nil {
		log.Printf("classifier: zero-shot scoring failed, degrading to unknown: %v", err)
		return domain.QueryClassification{Type: domain.QueryTypeUnknown, Confidence: 0}
	}

	db := scores[LabelDatabaseQuery]
	doc := scores[LabelDocumentSearch]

	switch {
	case db > Threshold && doc > Threshold:
		confidence := db
		if doc < confidence {
			confidence = doc
		}
		return domain.QueryClassification{Type: domain.QueryTypeHybrid, Confidence: confidence}
	case db > Threshold:
		return domain.QueryClassification{Type: domain.QueryTypeSQL, Confidence: db}
	case doc > Threshold:
		return domain.QueryClassification{Type: domain.QueryTypeDocument, Confidence: doc}
	default:
		confidence := db
		if doc > confidence {
			confidence = doc
		}
		return domain.QueryClassification{Type: domain.QueryTypeUnknown, Confidence: confidence}
	}
}

// matchesSchemaToken reports whether any query token names a known table
// or column. Schema discovery failures disable this cue rather than
// failing classification.
func (c *Classifier) matchesSchemaToken(ctx context.Context, q string) bool {
	if c.schema == nil {
		return false
	}
	schema, err := c.schema.Discover(ctx)
	if err != nil || schema == nil {
		return false
	}

	names := make(map[string]struct{})
	for _, table := range schema.Tables {
		names[strings.ToLower(table.Name)] = struct{}{}
		for _, col := range table.Columns {
			names[strings.ToLower(col.Name)] = struct{}{}
		}
	}

	for _, token := range strings.FieldsFunc(q, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '_'
	}) {
		if _, ok := names[token]; ok {
			return true
		}
		// Naive plural: "employees" matches table "employee" and vice versa.
		if singular, found := strings.CutSuffix(token, "s"); found {
			if _, ok := names[singular]; ok {
				return true
			}
		}
		if _, ok := names[token+"s"]; ok {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
