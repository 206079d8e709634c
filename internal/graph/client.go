// Package graph wraps the Bolt driver behind a small statement runner so the
// hierarchy store can be exercised without a live database.
package graph

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Client runs single Cypher statements in read or write transactions.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result holds the rows returned by one statement.
type Result struct {
	Records []Record
}

// Record is one returned row keyed by the RETURN aliases.
type Record map[string]any

// String returns the value under key as text, or "" when absent or not
// textual.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// Bool accepts native booleans and "true"/"false" strings.
func (r Record) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	default:
		return false
	}
}

// Time returns the value under key in UTC. Timestamps are stored as
// RFC 3339 text; native temporal values are accepted too. The zero time
// means absent or unparseable.
func (r Record) Time(key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v.UTC()
	case string:
		if v == "" {
			return time.Time{}
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

// Options configures the Bolt driver.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	// AcquireTimeout bounds the wait for a pooled connection.
	AcquireTimeout time.Duration
	// MaxRetryTime bounds driver retries of a managed transaction.
	MaxRetryTime time.Duration
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
