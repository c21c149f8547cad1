package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type QueryRunner interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// TxRunner runs fn inside a transaction, committing on success and rolling
// back on any error (including a context canceled before commit).
func TxRunner[T any](ctx context.Context, db *sql.DB, fn func(*sql.Tx) (T, error)) (result T, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				zap.L().Error("failed to rollback transaction", zap.Error(rbErr))
			}
			return
		}
		if cmErr := tx.Commit(); cmErr != nil {
			zap.L().Error("failed to commit transaction", zap.Error(cmErr))
			err = fmt.Errorf("failed to commit transaction: %w", cmErr)
		}
	}()

	result, err = fn(tx)
	if err != nil {
		return result, fmt.Errorf("failed to execute transaction: %w", err)
	}

	if ctx.Err() != nil {
		err = ctx.Err()
		return result, fmt.Errorf("context canceled before commit: %w", err)
	}

	return result, nil
}

type Scannable interface {
	ScanRow(scanner RowScanner) error
}

type RowScanner interface {
	Scan(dest ...interface{}) error
}

type QueryDirection string

const (
	QueryDirectionAsc  QueryDirection = "ASC"
	QueryDirectionDesc QueryDirection = "DESC"
)

type QueryOptions struct {
	Where     string
	PageSize  int
	Page      int
	Direction QueryDirection
}

func ScanAll[T Scannable](rows *sql.Rows, factory func() T) ([]T, error) {
	var items []T
	for rows.Next() {
		item := factory()
		if err := item.ScanRow(rows); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetPaginatedResponseForQuery runs baseQuery filtered by queryOptions.Where,
// ordered by orderColumns and limited to one page, together with the total
// row count of tableName under the same filter.
func GetPaginatedResponseForQuery[T Scannable](
	tableName string,
	rq QueryRunner,
	baseQuery string,
	queryOptions QueryOptions,
	orderColumns []string,
	queryParams []interface{},
	factory func() T,
) (total int, data []T, err error) {
	if len(orderColumns) == 0 {
		return 0, nil, errors.New("no order columns provided")
	}
	if queryOptions.Direction == "" {
		queryOptions.Direction = QueryDirectionDesc
	}

	orders := make([]string, 0, len(orderColumns))
	for _, col := range orderColumns {
		orders = append(orders, fmt.Sprintf("%s %s", col, queryOptions.Direction))
	}

	offset := (queryOptions.Page - 1) * queryOptions.PageSize
	if offset < 0 {
		offset = 0
	}

	whereClause := ""
	if queryOptions.Where != "" {
		whereClause = "WHERE " + queryOptions.Where
	}

	query := fmt.Sprintf("%s %s ORDER BY %s LIMIT ? OFFSET ?", baseQuery, whereClause, strings.Join(orders, ", "))
	params := append(append([]interface{}{}, queryParams...), queryOptions.PageSize, offset)

	rows, err := rq.Query(query, params...)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	data, err = ScanAll(rows, factory)
	if err != nil {
		return 0, nil, err
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", tableName, whereClause)
	if err := rq.QueryRow(countQuery, queryParams...).Scan(&total); err != nil {
		return 0, nil, err
	}

	return total, data, nil
}

// PaginatedQuerier is implemented by table accessors that can serve one page
// of a filtered query together with the filter's total row count.
type PaginatedQuerier[T any] interface {
	GetPaginatedResponseForQuery(rq QueryRunner, queryOptions QueryOptions, queryParams []interface{}) (total int, data []*T, err error)
}
