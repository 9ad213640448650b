package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
)

// compile-time check that *DB implements repository.ReportRepository
var _ repository.ReportRepository = (*DB)(nil)

type columnKind int

const (
	textColumn columnKind = iota
	intColumn
	floatColumn
	dateColumn
	dateTimeColumn
)

// reportColumn maps a table column to the key the dashboard charts read.
type reportColumn struct {
	column string
	key    string
	kind   columnKind
}

type reportDef struct {
	table   string
	columns []reportColumn
	orderBy string
}

// reports is the registry of executive dashboard tables. Every report is a
// plain read of one table; the name is the URL segment under /api/ceo.
var reports = map[string]reportDef{
	"key_metrics": {
		table: "ceo_key_metrics",
		columns: []reportColumn{
			{"metric", "Metric", textColumn},
			{"metric_value", "Value", floatColumn},
			{"unit", "Unit", textColumn},
		},
		orderBy: "id",
	},
	"growth_trend": {
		table: "ceo_growth_trend",
		columns: []reportColumn{
			{"stat_date", "Date", dateColumn},
			{"users", "Users", intColumn},
		},
		orderBy: "stat_date",
	},
	"engagement_indicators": {
		table: "ceo_engagement_indicators",
		columns: []reportColumn{
			{"metric", "Metric", textColumn},
			{"metric_value", "Value", floatColumn},
		},
		orderBy: "id",
	},
	"daily_active_users": {
		table: "ceo_daily_active_users",
		columns: []reportColumn{
			{"stat_date", "Date", dateColumn},
			{"users", "Users", intColumn},
		},
		orderBy: "stat_date",
	},
	"client_activity": {
		table: "ceo_client_activity",
		columns: []reportColumn{
			{"client_id", "ClientID", intColumn},
			{"client_name", "Name", textColumn},
			{"last_login", "LastLogin", dateTimeColumn},
			{"sessions", "Sessions", intColumn},
		},
		orderBy: "sessions DESC, id",
	},
	"financial_indicators": {
		table: "ceo_financial_indicators",
		columns: []reportColumn{
			{"metric", "Metric", textColumn},
			{"metric_value", "Value", floatColumn},
			{"unit", "Unit", textColumn},
		},
		orderBy: "id",
	},
	"revenue_trend": {
		table: "ceo_revenue_trend",
		columns: []reportColumn{
			{"stat_month", "Month", textColumn},
			{"revenue", "Revenue", floatColumn},
		},
		orderBy: "stat_month",
	},
	"expense_breakdown": {
		table: "ceo_expense_breakdown",
		columns: []reportColumn{
			{"category", "Category", textColumn},
			{"percentage", "Percentage", floatColumn},
		},
		orderBy: "percentage DESC, id",
	},
	"performance_indicators": {
		table: "ceo_performance_indicators",
		columns: []reportColumn{
			{"metric", "Metric", textColumn},
			{"metric_value", "Value", textColumn},
		},
		orderBy: "id",
	},
	"api_response_time": {
		table: "ceo_api_response_time",
		columns: []reportColumn{
			{"measured_at", "Time", dateTimeColumn},
			{"response_time_ms", "ResponseTime", floatColumn},
		},
		orderBy: "measured_at",
	},
	"user_traffic": {
		table: "ceo_user_traffic",
		columns: []reportColumn{
			{"stat_hour", "Hour", intColumn},
			{"traffic", "Traffic", intColumn},
		},
		orderBy: "stat_hour",
	},
}

// ReportNames lists the registered reports in alphabetical order.
func (db *DB) ReportNames() []string {
	names := lo.Keys(reports)
	sort.Strings(names)
	return names
}

// Report reads every row of the named report. NULL cells are returned as
// nil so the JSON carries null.
func (db *DB) Report(ctx context.Context, name string) ([]model.ReportRow, error) {
	def, ok := reports[name]
	if !ok {
		return nil, apperror.NotFound("report", name)
	}

	cols := lo.Map(def.columns, func(c reportColumn, _ int) string { return c.column })
	rows, err := queryBuilder(ctx, db.conn, db.sb.
		Select(cols...).
		From(def.table).
		OrderBy(strings.Split(def.orderBy, ", ")...))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: querying report %s: %w", name, err)
	}
	defer rows.Close()

	result := make([]model.ReportRow, 0)
	for rows.Next() {
		row, err := scanReportRow(rows, def.columns)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning report %s: %w", name, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating report %s: %w", name, err)
	}
	return result, nil
}

func scanReportRow(rows *sql.Rows, columns []reportColumn) (model.ReportRow, error) {
	dest := make([]any, len(columns))
	for i, c := range columns {
		switch c.kind {
		case intColumn:
			dest[i] = new(sql.NullInt64)
		case floatColumn:
			dest[i] = new(sql.NullFloat64)
		case dateColumn, dateTimeColumn:
			dest[i] = new(nullTime)
		default:
			dest[i] = new(sql.NullString)
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	row := make(model.ReportRow, len(columns))
	for i, c := range columns {
		var v any
		switch d := dest[i].(type) {
		case *sql.NullInt64:
			if d.Valid {
				v = d.Int64
			}
		case *sql.NullFloat64:
			if d.Valid {
				v = d.Float64
			}
		case *sql.NullString:
			if d.Valid {
				v = d.String
			}
		case *nullTime:
			if d.Valid && c.kind == dateColumn {
				v = d.date()
			} else if d.Valid {
				v = d.dateTime()
			}
		}
		row[c.key] = v
	}
	return row, nil
}
