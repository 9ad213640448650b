package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

// The schema is written once with a handful of type tokens that are
// substituted per dialect. CREATE ... IF NOT EXISTS keeps every statement
// idempotent, so migrate runs on every start.
var schema = []struct {
	name string
	stmt string
}{
	{"clients", `
		CREATE TABLE IF NOT EXISTS clients (
			id         {{pk}},
			name       TEXT NOT NULL,
			dob        DATE,
			email      TEXT NOT NULL UNIQUE,
			archived   BOOLEAN NOT NULL DEFAULT FALSE,
			created_at {{ts}} NOT NULL
		)`},
	{"clients email index", `CREATE UNIQUE INDEX IF NOT EXISTS idx_clients_email_lower ON clients(LOWER(email))`},
	{"clients created_at index", `CREATE INDEX IF NOT EXISTS idx_clients_created_at ON clients(created_at)`},

	{"meal_logs", `
		CREATE TABLE IF NOT EXISTS meal_logs (
			id        {{pk}},
			client_id BIGINT NOT NULL REFERENCES clients(id),
			logged_at {{ts}} NOT NULL,
			notes     TEXT NOT NULL DEFAULT ''
		)`},
	{"meal_logs client index", `CREATE INDEX IF NOT EXISTS idx_meal_logs_client_logged ON meal_logs(client_id, logged_at)`},

	{"nutrients", `
		CREATE TABLE IF NOT EXISTS nutrients (
			id          {{pk}},
			meal_log_id BIGINT NOT NULL REFERENCES meal_logs(id) ON DELETE CASCADE,
			name        TEXT NOT NULL,
			category    TEXT NOT NULL,
			quantity    {{real}} NOT NULL,
			unit        TEXT NOT NULL
		)`},
	{"nutrients meal index", `CREATE INDEX IF NOT EXISTS idx_nutrients_meal_log_id ON nutrients(meal_log_id)`},

	{"nutrition_plans", `
		CREATE TABLE IF NOT EXISTS nutrition_plans (
			id             {{pk}},
			client_id      BIGINT NOT NULL REFERENCES clients(id),
			title          TEXT NOT NULL,
			daily_calories {{real}} NOT NULL DEFAULT 0,
			start_date     DATE NOT NULL,
			end_date       DATE
		)`},
	{"progress_reports", `
		CREATE TABLE IF NOT EXISTS progress_reports (
			id           {{pk}},
			client_id    BIGINT NOT NULL REFERENCES clients(id),
			report_date  DATE NOT NULL,
			weight_kg    {{real}} NOT NULL,
			body_fat_pct {{real}},
			notes        TEXT NOT NULL DEFAULT ''
		)`},
	{"nutrient_targets", `
		CREATE TABLE IF NOT EXISTS nutrient_targets (
			name               TEXT PRIMARY KEY,
			recommended_amount {{real}} NOT NULL,
			unit               TEXT NOT NULL
		)`},

	{"datasets", `
		CREATE TABLE IF NOT EXISTS datasets (
			id          {{pk}},
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL
		)`},
	{"system_performance", `
		CREATE TABLE IF NOT EXISTS system_performance (
			id               {{pk}},
			metric           TEXT NOT NULL,
			status           TEXT NOT NULL DEFAULT '',
			existing_clients BIGINT NOT NULL DEFAULT 0,
			new_clients      BIGINT NOT NULL DEFAULT 0,
			recorded_at      {{ts}} NOT NULL
		)`},
	{"system_performance index", `CREATE INDEX IF NOT EXISTS idx_system_performance_recorded_at ON system_performance(recorded_at)`},

	{"accounts", `
		CREATE TABLE IF NOT EXISTS accounts (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			display_name  TEXT NOT NULL DEFAULT '',
			role          TEXT NOT NULL,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     BIGINT UNIQUE,
			client_id     BIGINT REFERENCES clients(id) ON DELETE SET NULL,
			created_at    {{ts}} NOT NULL
		)`},

	// Athlete dashboard tables. They are loaded by the analytics pipeline
	// and only ever read by the API.
	{"athletes", `
		CREATE TABLE IF NOT EXISTS athletes (
			id             {{pk}},
			name           TEXT NOT NULL,
			age            BIGINT NOT NULL,
			weight_kg      {{real}} NOT NULL,
			height_cm      {{real}} NOT NULL,
			activity_level TEXT NOT NULL DEFAULT ''
		)`},
	{"workout_plans", `
		CREATE TABLE IF NOT EXISTS workout_plans (
			id         {{pk}},
			athlete_id BIGINT NOT NULL REFERENCES athletes(id),
			goal       TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date   DATE NOT NULL
		)`},
	{"athlete_meal_logs", `
		CREATE TABLE IF NOT EXISTS athlete_meal_logs (
			id          {{pk}},
			athlete_id  BIGINT NOT NULL REFERENCES athletes(id),
			log_date    DATE NOT NULL,
			day_of_week TEXT NOT NULL DEFAULT '',
			meal_type   TEXT NOT NULL DEFAULT '',
			calories    {{real}} NOT NULL DEFAULT 0,
			protein_g   {{real}} NOT NULL DEFAULT 0,
			carbs_g     {{real}} NOT NULL DEFAULT 0,
			fats_g      {{real}} NOT NULL DEFAULT 0
		)`},
	{"athlete_meal_logs index", `CREATE INDEX IF NOT EXISTS idx_athlete_meal_logs_athlete ON athlete_meal_logs(athlete_id, log_date)`},
	{"reminders", `
		CREATE TABLE IF NOT EXISTS reminders (
			id            {{pk}},
			athlete_id    BIGINT NOT NULL REFERENCES athletes(id),
			reminder_type TEXT NOT NULL,
			remind_at     TEXT NOT NULL,
			message       TEXT NOT NULL DEFAULT ''
		)`},

	// Executive dashboard tables, one per chart.
	{"ceo_key_metrics", `
		CREATE TABLE IF NOT EXISTS ceo_key_metrics (
			id {{pk}}, metric TEXT NOT NULL, metric_value {{real}}, unit TEXT NOT NULL DEFAULT ''
		)`},
	{"ceo_growth_trend", `
		CREATE TABLE IF NOT EXISTS ceo_growth_trend (
			id {{pk}}, stat_date DATE NOT NULL, users BIGINT NOT NULL DEFAULT 0
		)`},
	{"ceo_engagement_indicators", `
		CREATE TABLE IF NOT EXISTS ceo_engagement_indicators (
			id {{pk}}, metric TEXT NOT NULL, metric_value {{real}}
		)`},
	{"ceo_daily_active_users", `
		CREATE TABLE IF NOT EXISTS ceo_daily_active_users (
			id {{pk}}, stat_date DATE NOT NULL, users BIGINT NOT NULL DEFAULT 0
		)`},
	{"ceo_client_activity", `
		CREATE TABLE IF NOT EXISTS ceo_client_activity (
			id {{pk}}, client_id BIGINT, client_name TEXT NOT NULL, last_login {{ts}}, sessions BIGINT NOT NULL DEFAULT 0
		)`},
	{"ceo_financial_indicators", `
		CREATE TABLE IF NOT EXISTS ceo_financial_indicators (
			id {{pk}}, metric TEXT NOT NULL, metric_value {{real}}, unit TEXT NOT NULL DEFAULT ''
		)`},
	{"ceo_revenue_trend", `
		CREATE TABLE IF NOT EXISTS ceo_revenue_trend (
			id {{pk}}, stat_month TEXT NOT NULL, revenue {{real}} NOT NULL DEFAULT 0
		)`},
	{"ceo_expense_breakdown", `
		CREATE TABLE IF NOT EXISTS ceo_expense_breakdown (
			id {{pk}}, category TEXT NOT NULL, percentage {{real}} NOT NULL DEFAULT 0
		)`},
	{"ceo_performance_indicators", `
		CREATE TABLE IF NOT EXISTS ceo_performance_indicators (
			id {{pk}}, metric TEXT NOT NULL, metric_value TEXT NOT NULL DEFAULT ''
		)`},
	{"ceo_api_response_time", `
		CREATE TABLE IF NOT EXISTS ceo_api_response_time (
			id {{pk}}, measured_at {{ts}} NOT NULL, response_time_ms {{real}} NOT NULL DEFAULT 0
		)`},
	{"ceo_user_traffic", `
		CREATE TABLE IF NOT EXISTS ceo_user_traffic (
			id {{pk}}, stat_hour BIGINT NOT NULL, traffic BIGINT NOT NULL DEFAULT 0
		)`},
}

func (db *DB) typeReplacer() *strings.Replacer {
	if db.dialect == DialectPostgres {
		return strings.NewReplacer(
			"{{pk}}", "BIGSERIAL PRIMARY KEY",
			"{{ts}}", "TIMESTAMPTZ",
			"{{real}}", "DOUBLE PRECISION",
		)
	}
	return strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "DATETIME",
		"{{real}}", "REAL",
	)
}

// migrate creates every table and index that does not exist yet.
func (db *DB) migrate(ctx context.Context) error {
	r := db.typeReplacer()
	for _, s := range schema {
		if _, err := db.conn.ExecContext(ctx, r.Replace(s.stmt)); err != nil {
			return fmt.Errorf("creating %s: %w", s.name, err)
		}
	}
	return nil
}
