package pgtool

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/skosovsky/toolsrv"
)

const (
	listTablesSQL = `SELECT table_name
FROM information_schema.tables
WHERE table_schema = 'public'
ORDER BY table_name`

	tableColumnsSQL = `SELECT column_name, data_type, is_nullable, column_default
FROM information_schema.columns
WHERE table_schema = 'public' AND table_name = $1
ORDER BY ordinal_position`

	primaryKeysSQL = `SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name
WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = 'public' AND tc.table_name = $1
ORDER BY kcu.ordinal_position`
)

// TablesResult is returned by list_tables.
type TablesResult struct {
	Tables []string `json:"tables"`
}

// Column describes one table column.
type Column struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default"`
}

// TableSchema is returned by get_table_schema.
type TableSchema struct {
	Table       string   `json:"table"`
	Columns     []Column `json:"columns"`
	PrimaryKeys []string `json:"primary_keys"`
}

// QueryResult is returned by execute_query.
type QueryResult struct {
	Rows []map[string]any `json:"rows"`
}

// CountResult is returned by count_rows.
type CountResult struct {
	Count int64 `json:"count"`
}

// Register adds the PostgreSQL tools backed by op to reg.
func Register(reg *toolsrv.Registry, op *Operator) error {
	tag := toolsrv.WithTags("postgres")
	tableName := toolsrv.ParameterSpec{
		Name: "table_name", Type: toolsrv.TypeString, Required: true, Description: "Name of the table",
	}
	if err := toolsrv.RegisterFunc(reg, toolsrv.ToolDescriptor{
		Name:        "list_tables",
		Description: "List all tables in the connected database",
	}, func(ctx context.Context, _ toolsrv.Args) (TablesResult, error) {
		return op.ListTables(ctx)
	}, tag); err != nil {
		return err
	}
	if err := toolsrv.RegisterFunc(reg, toolsrv.ToolDescriptor{
		Name:        "get_table_schema",
		Description: "Get the schema information for a specific table",
		Parameters:  []toolsrv.ParameterSpec{tableName},
	}, func(ctx context.Context, args toolsrv.Args) (TableSchema, error) {
		return op.TableSchema(ctx, args.String("table_name"))
	}, tag); err != nil {
		return err
	}
	if err := toolsrv.RegisterFunc(reg, toolsrv.ToolDescriptor{
		Name:        "execute_query",
		Description: "Execute a read-only SQL query",
		Parameters: []toolsrv.ParameterSpec{
			{Name: "query", Type: toolsrv.TypeString, Required: true, Description: "SQL query to execute (read-only)"},
		},
	}, func(ctx context.Context, args toolsrv.Args) (QueryResult, error) {
		return op.ExecuteQuery(ctx, args.String("query"))
	}, tag); err != nil {
		return err
	}
	return toolsrv.RegisterFunc(reg, toolsrv.ToolDescriptor{
		Name:        "count_rows",
		Description: "Count the number of rows in a table with an optional condition",
		Parameters: []toolsrv.ParameterSpec{
			tableName,
			{Name: "condition", Type: toolsrv.TypeString, Default: "", Description: "Optional WHERE condition"},
		},
	}, func(ctx context.Context, args toolsrv.Args) (CountResult, error) {
		return op.CountRows(ctx, args.String("table_name"), args.String("condition"))
	}, tag)
}

// ListTables lists the tables of the public schema.
func (o *Operator) ListTables(ctx context.Context) (TablesResult, error) {
	var tables []string
	err := o.withConn(ctx, func(c Conn) error {
		rows, err := c.Query(ctx, listTablesSQL)
		if err != nil {
			return err
		}
		tables, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "error listing tables", "error", err)
		return TablesResult{}, toolsrv.Downstream("list tables", err)
	}
	if tables == nil {
		tables = []string{}
	}
	o.logger.InfoContext(ctx, "listed tables", "count", len(tables))
	return TablesResult{Tables: tables}, nil
}

// TableSchema describes the columns and primary key of a public table.
func (o *Operator) TableSchema(ctx context.Context, table string) (TableSchema, error) {
	out := TableSchema{Table: table, Columns: []Column{}, PrimaryKeys: []string{}}
	err := o.withConn(ctx, func(c Conn) error {
		rows, err := c.Query(ctx, tableColumnsSQL, table)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				col      Column
				nullable string
			)
			if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Default); err != nil {
				return err
			}
			col.Nullable = nullable == "YES"
			out.Columns = append(out.Columns, col)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(out.Columns) == 0 {
			return nil
		}
		pkRows, err := c.Query(ctx, primaryKeysSQL, table)
		if err != nil {
			return err
		}
		keys, err := pgx.CollectRows(pkRows, pgx.RowTo[string])
		if err != nil {
			return err
		}
		out.PrimaryKeys = append(out.PrimaryKeys, keys...)
		return nil
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "error getting table schema", "table", table, "error", err)
		return TableSchema{}, toolsrv.Downstream("get table schema", err)
	}
	if len(out.Columns) == 0 {
		return TableSchema{}, &toolsrv.DownstreamError{
			Err: fmt.Errorf("table '%s' %w", table, toolsrv.ErrNotFound),
		}
	}
	o.logger.InfoContext(ctx, "retrieved table schema", "table", table)
	return out, nil
}

// ExecuteQuery runs a caller-supplied query after the read-only guard accepts it.
func (o *Operator) ExecuteQuery(ctx context.Context, query string) (QueryResult, error) {
	if err := CheckReadOnly(query); err != nil {
		o.logger.WarnContext(ctx, "rejected non-read-only query")
		return QueryResult{}, err
	}
	var records []map[string]any
	err := o.withConn(ctx, func(c Conn) error {
		rows, err := c.Query(ctx, query)
		if err != nil {
			return err
		}
		records, err = pgx.CollectRows(rows, pgx.RowToMap)
		return err
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "error executing query", "error", err)
		return QueryResult{}, toolsrv.Downstream("execute query", err)
	}
	out := QueryResult{Rows: make([]map[string]any, 0, len(records))}
	for _, r := range records {
		out.Rows = append(out.Rows, jsonRecord(r))
	}
	o.logger.InfoContext(ctx, "executed query", "rows", len(out.Rows))
	return out, nil
}

// CountRows counts rows of table, optionally filtered by a WHERE condition.
// Both values are spliced into the statement text, so the read-only guard runs on the result.
func (o *Operator) CountRows(ctx context.Context, table, condition string) (CountResult, error) {
	query := "SELECT COUNT(*) FROM " + table
	if condition != "" {
		query += " WHERE " + condition
	}
	if err := CheckReadOnly(query); err != nil {
		o.logger.WarnContext(ctx, "rejected non-read-only count query", "table", table)
		return CountResult{}, err
	}
	var count int64
	err := o.withConn(ctx, func(c Conn) error {
		return c.QueryRow(ctx, query).Scan(&count)
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "error counting rows", "table", table, "error", err)
		return CountResult{}, toolsrv.Downstream("count rows", err)
	}
	o.logger.InfoContext(ctx, "counted rows", "table", table, "count", count)
	return CountResult{Count: count}, nil
}
