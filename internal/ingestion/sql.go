package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"                  // PostgreSQL driver
	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver

	"github.com/ignite/insight-engine/internal/pkg/logger"
	"github.com/ignite/insight-engine/internal/table"
)

// OpenSQL opens a pooled connection for "postgres" or "snowflake" and
// verifies it with a ping.
func OpenSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "postgres", "snowflake":
	default:
		return nil, fmt.Errorf("sql driver %q: %w", driver, ErrUnsupportedFormat)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", driver, err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// LoadSQL runs query and returns its result set as a table. Column names are
// lower-cased so Snowflake's upper-case identifiers match the usual names.
func LoadSQL(ctx context.Context, db *sql.DB, query string, args ...any) (*table.Table, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query source: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = strings.ToLower(c)
	}
	t := table.New(names...)

	dest := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		cells := make([]table.Value, len(cols))
		for i, v := range dest {
			cells[i] = sqlValue(v)
		}
		if err := t.AppendRow(cells...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	logger.Info("loaded query", "rows", t.Len(), "columns", len(names))
	return t, nil
}

func sqlValue(v any) table.Value {
	switch x := v.(type) {
	case nil:
		return table.Null()
	case int64:
		return table.Number(float64(x))
	case int32:
		return table.Number(float64(x))
	case float64:
		return table.Number(x)
	case float32:
		return table.Number(float64(x))
	case bool:
		return table.String(strconv.FormatBool(x))
	case time.Time:
		return table.Time(x)
	case []byte:
		return table.Parse(string(x))
	case string:
		return table.Parse(x)
	default:
		return table.Parse(fmt.Sprint(x))
	}
}
