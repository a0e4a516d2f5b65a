package rowmap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SqlInterface runs the queries of a QueryMapper - satisfied by *sql.DB, *sql.Tx and *sql.Conn
type SqlInterface interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Query is the body of a QueryMapper query, following the 'SELECT cols' that the QueryMapper already knows
//
// e.g. Query("FROM songs WHERE id > ?")
type Query string

// AddClause is a sql clause appended to the query when using QueryMapper.Rows, QueryMapper.FirstRow etc.
type AddClause string

// QueryMapper is the interface returned by NewQueryMapper / MustNewQueryMapper
type QueryMapper[T any] interface {
	// Rows reads all rows and maps them into a slice of `T`
	//
	// options can be any of Query, AddClause, PostProcessor[T], ErrorTranslator or Limiter
	Rows(ctx context.Context, db SqlInterface, args []any, options ...any) ([]T, error)
	// Iterate iterates over the rows and calls the supplied handler with each row
	//
	// iteration stops at the end of rows - or an error is encountered - or the supplied handler returns false for `cont` (continue)
	//
	// options can be any of Query, AddClause, PostProcessor[T], ErrorTranslator or Limiter
	Iterate(ctx context.Context, db SqlInterface, args []any, handler func(row T) (cont bool, err error), options ...any) error
	// FirstRow reads just the first row and maps it into a `T`
	//
	// if there are no rows, returns nil
	//
	// options can be any of Query, AddClause, PostProcessor[T], ErrorTranslator or Limiter (ignored)
	FirstRow(ctx context.Context, db SqlInterface, args []any, options ...any) (*T, error)
	// ExactlyOneRow reads exactly one row and maps it into a `T`
	//
	// if there are no rows, returns error sql.ErrNoRows
	//
	// options can be any of Query, AddClause, PostProcessor[T], ErrorTranslator or Limiter (ignored)
	ExactlyOneRow(ctx context.Context, db SqlInterface, args []any, options ...any) (T, error)
}

type queryMapper[T any] struct {
	cols            string
	defaultQuery    *Query
	mapper          TypedMapper[T]
	postProcessors  []PostProcessor[T]
	errorTranslator ErrorTranslator
	cursorOptions   []any
}

// NewQueryMapper creates a new QueryMapper for reading values of type T from database rows
//
// the mapper for T is resolved from the registry immediately - so an unregistered T fails here, not when rows
// are read
//
// options can be any of Query, PostProcessor[T], ErrorTranslator, ColumnScanners or UseDecimals
func NewQueryMapper[T any](reg *Registry, cols string, options ...any) (QueryMapper[T], error) {
	m := &queryMapper[T]{
		cols:            cols,
		errorTranslator: defaultErrorTranslator,
	}
	seenQuery := false
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case Query:
				if seenQuery {
					return nil, errors.New("cannot use multiple default queries")
				}
				seenQuery = true
				if err := checkForgedColumns(option); err != nil {
					return nil, err
				}
				qStr := Query("SELECT " + m.cols + " " + string(option))
				m.defaultQuery = &qStr
			case PostProcessor[T]:
				m.postProcessors = append(m.postProcessors, option)
			case ErrorTranslator:
				m.errorTranslator = option
			case ColumnScanners, UseDecimals:
				m.cursorOptions = append(m.cursorOptions, option)
			default:
				return nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	var err error
	if m.mapper, err = Resolve[T](reg); err != nil {
		return nil, translateError(err, m.errorTranslator)
	}
	return m, nil
}

// MustNewQueryMapper is the same as NewQueryMapper except that it panics on error
func MustNewQueryMapper[T any](reg *Registry, cols string, options ...any) QueryMapper[T] {
	result, err := NewQueryMapper[T](reg, cols, options...)
	if err != nil {
		panic(err)
	}
	return result
}

func (m *queryMapper[T]) Rows(ctx context.Context, db SqlInterface, args []any, options ...any) (result []T, err error) {
	query, postProcessors, limiter, errTranslator, err := m.rowMapOptions(options)
	if err == nil {
		var rows *sql.Rows
		if rows, err = db.QueryContext(ctx, query, args...); err == nil {
			defer func() {
				_ = rows.Close()
			}()
			var cursor Cursor
			if cursor, err = NewCursor(rows, m.cursorOptions...); err == nil {
				result = make([]T, 0)
				rowCount := 0
				for err == nil && cursor.Next() {
					rowCount++
					if limiter.LimitReached(rowCount) {
						break
					}
					var item T
					if item, err = m.readRow(ctx, db, cursor, postProcessors); err == nil {
						result = append(result, item)
					}
				}
				if err == nil {
					err = cursor.Err()
				}
			}
		}
	}
	if err != nil {
		return nil, translateError(err, errTranslator)
	}
	return result, nil
}

func (m *queryMapper[T]) Iterate(ctx context.Context, db SqlInterface, args []any, handler func(row T) (cont bool, err error), options ...any) (err error) {
	query, postProcessors, limiter, errTranslator, err := m.rowMapOptions(options)
	if err == nil {
		var rows *sql.Rows
		if rows, err = db.QueryContext(ctx, query, args...); err == nil {
			defer func() {
				_ = rows.Close()
			}()
			var cursor Cursor
			if cursor, err = NewCursor(rows, m.cursorOptions...); err == nil {
				cont := true
				rowCount := 0
				for cont && err == nil && cursor.Next() {
					rowCount++
					if limiter.LimitReached(rowCount) {
						break
					}
					var item T
					if item, err = m.readRow(ctx, db, cursor, postProcessors); err == nil {
						cont, err = handler(item)
					}
				}
				if err == nil {
					err = cursor.Err()
				}
			}
		}
	}
	return translateError(err, errTranslator)
}

func (m *queryMapper[T]) FirstRow(ctx context.Context, db SqlInterface, args []any, options ...any) (result *T, err error) {
	query, postProcessors, _, errTranslator, err := m.rowMapOptions(options)
	if err == nil {
		var rows *sql.Rows
		if rows, err = db.QueryContext(ctx, query, args...); err == nil {
			defer func() {
				_ = rows.Close()
			}()
			var cursor Cursor
			if cursor, err = NewCursor(rows, m.cursorOptions...); err == nil {
				if cursor.Next() {
					var item T
					if item, err = m.readRow(ctx, db, cursor, postProcessors); err == nil {
						result = &item
					}
				} else {
					err = cursor.Err()
				}
			}
		}
	}
	if err != nil {
		return nil, translateError(err, errTranslator)
	}
	return result, nil
}

func (m *queryMapper[T]) ExactlyOneRow(ctx context.Context, db SqlInterface, args []any, options ...any) (result T, err error) {
	query, postProcessors, _, errTranslator, err := m.rowMapOptions(options)
	if err == nil {
		var rows *sql.Rows
		if rows, err = db.QueryContext(ctx, query, args...); err == nil {
			defer func() {
				_ = rows.Close()
			}()
			var cursor Cursor
			if cursor, err = NewCursor(rows, m.cursorOptions...); err == nil {
				if cursor.Next() {
					result, err = m.readRow(ctx, db, cursor, postProcessors)
				} else if err = cursor.Err(); err == nil {
					err = sql.ErrNoRows
				}
			}
		}
	}
	if err != nil {
		var zero T
		return zero, translateError(err, errTranslator)
	}
	return result, nil
}

func (m *queryMapper[T]) readRow(ctx context.Context, db SqlInterface, row Row, postProcessors []PostProcessor[T]) (item T, err error) {
	if item, err = m.mapper.Map(row); err == nil {
		for _, pp := range postProcessors {
			if err = pp.PostProcess(ctx, db, &item); err != nil {
				var zero T
				return zero, err
			}
		}
	}
	return item, err
}

func (m *queryMapper[T]) rowMapOptions(options []any) (query string, postProcessors []PostProcessor[T], limiter Limiter, errorTranslator ErrorTranslator, err error) {
	querySet := false
	postProcessors = append(postProcessors, m.postProcessors...)
	limiter = defaultLimiter
	errorTranslator = m.errorTranslator
	var qb strings.Builder
	if m.defaultQuery != nil {
		querySet = true
		qb.WriteString(string(*m.defaultQuery))
	}
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case Query:
				querySet = true
				qb.Reset()
				if err = checkForgedColumns(option); err != nil {
					return
				}
				qb.WriteString("SELECT " + m.cols + " " + string(option))
			case AddClause:
				if !querySet {
					err = errors.New("add clause must have a query set")
					return
				}
				qb.WriteString(" " + string(option))
			case PostProcessor[T]:
				postProcessors = append(postProcessors, option)
			case Limiter:
				limiter = option
			case ErrorTranslator:
				errorTranslator = option
			default:
				err = fmt.Errorf("unknown option type: %T", o)
				return
			}
		}
	}
	if !querySet {
		err = errors.New("no default query")
	}
	return qb.String(), postProcessors, limiter, errorTranslator, err
}

func checkForgedColumns(query Query) error {
	if strings.HasPrefix(strings.TrimLeft(string(query), " \t\r\n"), ",") {
		return errors.New("cannot forge extra columns using Query")
	}
	return nil
}
