package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// DatabaseClient handles PostgREST operations with the service role key.
type DatabaseClient struct {
	client *Client
}

// Upsert inserts row into table, merging on the onConflict column when it already exists.
func (d *DatabaseClient) Upsert(ctx context.Context, table string, row interface{}, onConflict string) error {
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	urlPath := fmt.Sprintf("%s/%s", d.client.restURL, url.PathEscape(table))
	if onConflict != "" {
		urlPath += "?on_conflict=" + url.QueryEscape(onConflict)
	}
	headers := map[string]string{"Prefer": "resolution=merge-duplicates,return=minimal"}

	respBody, statusCode, err := d.client.requestWithServiceKey(ctx, http.MethodPost, urlPath, body, headers)
	if err != nil {
		return err
	}
	if statusCode >= 400 {
		return parseError(respBody, statusCode)
	}
	return nil
}

// DeleteEq deletes the rows of table whose column equals value.
func (d *DatabaseClient) DeleteEq(ctx context.Context, table, column, value string) error {
	urlPath := fmt.Sprintf("%s/%s?%s=eq.%s", d.client.restURL, url.PathEscape(table), url.QueryEscape(column), url.QueryEscape(value))

	respBody, statusCode, err := d.client.requestWithServiceKey(ctx, http.MethodDelete, urlPath, nil, nil)
	if err != nil {
		return err
	}
	if statusCode >= 400 {
		return parseError(respBody, statusCode)
	}
	return nil
}
