package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"horse.fit/newsrank/internal/engine"
)

//go:embed article_batch.schema.json
var articleBatchSchemaJSON string

// ArticleBatch is the wire payload of one ranking request.
type ArticleBatch struct {
	PayloadVersion string        `json:"payload_version"`
	Articles       []ArticleItem `json:"articles"`
}

// ArticleItem is one article as submitted, before conversion to the
// engine's representation.
type ArticleItem struct {
	ID           string   `json:"id"`
	SourceID     string   `json:"source_id"`
	SourceName   *string  `json:"source_name,omitempty"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	URL          string   `json:"url"`
	PublishedAt  *string  `json:"published_at,omitempty"`
	Category     *string  `json:"category,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	ViewCount    *int64   `json:"view_count,omitempty"`
	ShareCount   *int64   `json:"share_count,omitempty"`
	CommentCount *int64   `json:"comment_count,omitempty"`
	Relevance    *float64 `json:"relevance,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateArticleBatch checks a raw payload against the embedded schema
// and semantic rules, returning the decoded batch.
func ValidateArticleBatch(payload json.RawMessage) (*ArticleBatch, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var batch ArticleBatch
	if err := json.Unmarshal(normalized, &batch); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&batch); err != nil {
		return nil, err
	}

	return &batch, nil
}

// EngineArticles converts the validated batch to the engine
// representation, preserving submission order.
func (b *ArticleBatch) EngineArticles() []engine.Article {
	if b == nil {
		return nil
	}

	articles := make([]engine.Article, 0, len(b.Articles))
	for _, item := range b.Articles {
		article := engine.Article{
			ID:           item.ID,
			SourceID:     item.SourceID,
			Title:        item.Title,
			Body:         item.Body,
			URL:          item.URL,
			Tags:         item.Tags,
			ViewCount:    item.ViewCount,
			ShareCount:   item.ShareCount,
			CommentCount: item.CommentCount,
			Relevance:    item.Relevance,
		}
		if item.SourceName != nil {
			article.SourceName = *item.SourceName
		}
		if item.Category != nil {
			article.Category = *item.Category
		}
		if item.PublishedAt != nil {
			if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*item.PublishedAt)); err == nil {
				utc := parsed.UTC()
				article.PublishedAt = &utc
			}
		}
		articles = append(articles, article)
	}
	return articles
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("article_batch.schema.json", strings.NewReader(articleBatchSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("article_batch.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(batch *ArticleBatch) error {
	if batch == nil {
		return fmt.Errorf("payload is nil")
	}
	if strings.TrimSpace(batch.PayloadVersion) != "v1" {
		return fmt.Errorf("payload_version must be v1")
	}

	seen := make(map[string]struct{}, len(batch.Articles))
	for i, item := range batch.Articles {
		if strings.TrimSpace(item.ID) == "" {
			return fmt.Errorf("articles[%d].id must not be empty", i)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("articles[%d].id %q is duplicated", i, item.ID)
		}
		seen[item.ID] = struct{}{}

		if strings.TrimSpace(item.SourceID) == "" {
			return fmt.Errorf("articles[%d].source_id must not be empty", i)
		}
		if item.PublishedAt != nil {
			if _, err := time.Parse(time.RFC3339, strings.TrimSpace(*item.PublishedAt)); err != nil {
				return fmt.Errorf("articles[%d].published_at must be RFC3339: %w", i, err)
			}
		}
		for j, tag := range item.Tags {
			if strings.TrimSpace(tag) == "" {
				return fmt.Errorf("articles[%d].tags[%d] must not be empty", i, j)
			}
		}
	}

	return nil
}
