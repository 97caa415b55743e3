package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"spotlight-mcp-server/internal/record"
	"spotlight-mcp-server/internal/session"
)

// suiteQLPath is the account-relative query endpoint.
const suiteQLPath = "/services/rest/query/v1/suiteql"

// restBackend sends structured SuiteQL queries to the account's remote
// query endpoint with bearer-token authorization.
type restBackend struct {
	client *http.Client
	limit  int
}

// NewRESTBackend builds the SuiteQL strategy. A nil client uses
// http.DefaultClient.
func NewRESTBackend(client *http.Client, limit int) Backend {
	if client == nil {
		client = http.DefaultClient
	}
	if limit <= 0 {
		limit = DefaultPerTypeLimit
	}
	return &restBackend{client: client, limit: limit}
}

func (b *restBackend) Name() string { return "suiteql" }

func (b *restBackend) Search(ctx context.Context, intent QueryIntent, sess session.Context) ([]record.Raw, error) {
	if sess.BaseURL == "" {
		return nil, errors.New("session has no base url")
	}

	body, err := json.Marshal(map[string]string{"q": buildSuiteQL(intent, b.limit)})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sess.BaseURL+suiteQLPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+sess.AuthToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "transient")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("suiteql %s: status %d: %s", intent.Type, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var payload struct {
		Items []map[string]interface{} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode suiteql response: %w", err)
	}

	rows := make([]record.Raw, 0, len(payload.Items))
	for _, item := range payload.Items {
		rows = append(rows, record.Raw{Type: intent.Type, Fields: item})
	}
	return rows, nil
}

// buildSuiteQL renders the per-type query template: fetch the configured
// columns, match the query substring case-insensitively against the
// type's match fields.
func buildSuiteQL(intent QueryIntent, limit int) string {
	def := intent.Def
	q := escapeSQLLiteral(intent.Query)

	predicates := make([]string, 0, len(def.MatchFields))
	for _, field := range def.MatchFields {
		predicates = append(predicates, fmt.Sprintf("UPPER(%s) LIKE UPPER('%%%s%%')", field, q))
	}

	return fmt.Sprintf(
		"SELECT id, %s FROM %s WHERE %s ORDER BY %s LIMIT %d",
		strings.Join(def.Columns, ", "),
		def.Table,
		strings.Join(predicates, " OR "),
		def.OrderBy,
		limit,
	)
}

func escapeSQLLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
