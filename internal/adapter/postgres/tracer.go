package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pscheid92/feedback-pulse/internal/adapter/metrics"
)

// queryTracer records per-statement timings on the pool's connections.
type queryTracer struct {
	metrics *metrics.PostgresMetrics
}

var _ pgx.QueryTracer = (*queryTracer)(nil)

type queryStartKey struct{}

type queryStart struct {
	at        time.Time
	statement string
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{at: time.Now(), statement: statementKind(data.SQL)})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	t.metrics.ObserveQuery(start.statement, time.Since(start.at), data.Err)
}

// statementKind reduces SQL to its leading keyword to keep label cardinality low.
func statementKind(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToUpper(fields[0])
}
