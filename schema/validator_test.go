package payloadschema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateArticleBatch_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"articles":[
			{
				"id":"a-1",
				"source_id":"wire-service",
				"source_name":"Wire Service",
				"title":"Budget revision announced",
				"body":"The ministry revised the budget.",
				"url":"https://wire.example/budget",
				"published_at":"2026-08-24T09:00:00Z",
				"view_count":1200,
				"share_count":40,
				"tags":["economy"],
				"relevance":0.8
			}
		]
	}`)

	batch, err := ValidateArticleBatch(payload)
	if err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}
	if batch.PayloadVersion != "v1" {
		t.Fatalf("expected payload_version=v1, got %q", batch.PayloadVersion)
	}
	if len(batch.Articles) != 1 || batch.Articles[0].ID != "a-1" {
		t.Fatalf("unexpected articles: %+v", batch.Articles)
	}

	articles := batch.EngineArticles()
	if len(articles) != 1 {
		t.Fatalf("expected 1 engine article, got %d", len(articles))
	}
	a := articles[0]
	if a.SourceName != "Wire Service" {
		t.Fatalf("unexpected source name %q", a.SourceName)
	}
	if a.PublishedAt == nil || a.PublishedAt.UTC().Hour() != 9 {
		t.Fatalf("published_at not carried over: %v", a.PublishedAt)
	}
	if a.ViewCount == nil || *a.ViewCount != 1200 {
		t.Fatalf("view_count not carried over: %v", a.ViewCount)
	}
	if a.Relevance == nil || *a.Relevance != 0.8 {
		t.Fatalf("relevance not carried over: %v", a.Relevance)
	}
}

func TestValidateArticleBatch_MissingRequiredField(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"articles":[
			{
				"id":"a-1",
				"title":"No source id",
				"body":"text",
				"url":"https://example.com/x"
			}
		]
	}`)

	if _, err := ValidateArticleBatch(payload); err == nil {
		t.Fatalf("expected error for missing source_id")
	}
}

func TestValidateArticleBatch_WrongVersion(t *testing.T) {
	payload := json.RawMessage(`{"payload_version":"v2","articles":[]}`)
	if _, err := ValidateArticleBatch(payload); err == nil {
		t.Fatalf("expected error for unsupported payload_version")
	}
}

func TestValidateArticleBatch_DuplicateIDs(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"articles":[
			{"id":"dup","source_id":"s1","title":"t","body":"b","url":"https://a.example/1"},
			{"id":"dup","source_id":"s2","title":"t","body":"b","url":"https://b.example/2"}
		]
	}`)

	_, err := ValidateArticleBatch(payload)
	if err == nil || !strings.Contains(err.Error(), "duplicated") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestValidateArticleBatch_NegativeCounterRejected(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"articles":[
			{"id":"a","source_id":"s1","title":"t","body":"b","url":"https://a.example/1","view_count":-3}
		]
	}`)

	if _, err := ValidateArticleBatch(payload); err == nil {
		t.Fatalf("expected error for negative view_count")
	}
}

func TestValidateArticleBatch_TrailingContent(t *testing.T) {
	payload := json.RawMessage(`{"payload_version":"v1","articles":[]} {"extra":true}`)
	if _, err := ValidateArticleBatch(payload); err == nil {
		t.Fatalf("expected error for trailing content")
	}
}

func TestValidateArticleBatch_EmptyBatchIsValid(t *testing.T) {
	payload := json.RawMessage(`{"payload_version":"v1","articles":[]}`)
	batch, err := ValidateArticleBatch(payload)
	if err != nil {
		t.Fatalf("expected empty batch to validate, got %v", err)
	}
	if len(batch.EngineArticles()) != 0 {
		t.Fatalf("expected no engine articles")
	}
}

func TestValidateArticleBatch_InvalidPublishedAt(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"articles":[
			{"id":"a","source_id":"s1","title":"t","body":"b","url":"https://a.example/1","published_at":"yesterday"}
		]
	}`)

	if _, err := ValidateArticleBatch(payload); err == nil {
		t.Fatalf("expected error for malformed published_at")
	}
}
