package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxRunner executes agent-generated SQL against a pool and renders every
// value as text, which is what the agent loop feeds back to the model.
type PgxRunner struct {
	pool *pgxpool.Pool
}

func NewPgxRunner(pool *pgxpool.Pool) *PgxRunner {
	return &PgxRunner{pool: pool}
}

// RunQuery executes sql and returns column names plus stringified rows.
func (r *PgxRunner) RunQuery(ctx context.Context, sql string) ([]string, [][]string, error) {
	if r.pool == nil {
		return nil, nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	descriptions := rows.FieldDescriptions()
	columns := make([]string, len(descriptions))
	for i, desc := range descriptions {
		columns[i] = desc.Name
	}

	var results [][]string
	for rows.Next() {
		values, scanErr := rows.Values()
		if scanErr != nil {
			return nil, nil, fmt.Errorf("scan row: %w", scanErr)
		}
		row := make([]string, len(values))
		for i, value := range values {
			if value == nil {
				row[i] = "NULL"
				continue
			}
			row[i] = fmt.Sprintf("%v", value)
		}
		results = append(results, row)
	}

	if rows.Err() != nil {
		return nil, nil, rows.Err()
	}

	return columns, results, nil
}
