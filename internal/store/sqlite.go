package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rpgo/lifesim/internal/calculation"
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SQLite persists households, price history, models and run results.
// Amounts are stored as decimal text so nothing is lost to floating point.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and runs migrations
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases and pragmas consistent
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys=ON", "PRAGMA journal_mode=WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS people (
			id                           TEXT PRIMARY KEY,
			name                         TEXT NOT NULL,
			birth_date                   TEXT NOT NULL,
			annual_salary                TEXT NOT NULL,
			annual_bonus                 TEXT NOT NULL,
			bonus_month                  INTEGER NOT NULL,
			match_401k_percent           TEXT NOT NULL,
			full_social_security_benefit TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS investment_accounts (
			person_id TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
			id        TEXT NOT NULL,
			ordinal   INTEGER NOT NULL,
			name      TEXT NOT NULL,
			type      TEXT NOT NULL,
			PRIMARY KEY (person_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS investment_positions (
			person_id    TEXT NOT NULL,
			account_id   TEXT NOT NULL,
			id           TEXT NOT NULL,
			ordinal      INTEGER NOT NULL,
			open         INTEGER NOT NULL,
			entry_date   TEXT NOT NULL,
			quantity     TEXT NOT NULL,
			price        TEXT NOT NULL,
			initial_cost TEXT NOT NULL,
			bucket       TEXT NOT NULL,
			PRIMARY KEY (person_id, account_id, id),
			FOREIGN KEY (person_id, account_id) REFERENCES investment_accounts(person_id, id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS debt_accounts (
			person_id TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
			id        TEXT NOT NULL,
			ordinal   INTEGER NOT NULL,
			name      TEXT NOT NULL,
			PRIMARY KEY (person_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS debt_positions (
			person_id       TEXT NOT NULL,
			account_id      TEXT NOT NULL,
			id              TEXT NOT NULL,
			ordinal         INTEGER NOT NULL,
			open            INTEGER NOT NULL,
			entry_date      TEXT NOT NULL,
			balance         TEXT NOT NULL,
			apr             TEXT NOT NULL,
			monthly_payment TEXT NOT NULL,
			PRIMARY KEY (person_id, account_id, id),
			FOREIGN KEY (person_id, account_id) REFERENCES debt_accounts(person_id, id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS price_history (
			month  TEXT PRIMARY KEY,
			rate   TEXT NOT NULL,
			source TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS models (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			version    INTEGER NOT NULL,
			generation INTEGER NOT NULL,
			parent_a   TEXT,
			parent_b   TEXT,
			definition TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_results (
			id                    TEXT PRIMARY KEY,
			model_id              TEXT NOT NULL,
			lives                 INTEGER NOT NULL,
			final_bankruptcy_rate TEXT NOT NULL,
			median_fun_points     TEXT NOT NULL,
			created_at            INTEGER NOT NULL,
			body                  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_results_model ON run_results(model_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// ImportConfiguration copies the household, growth history and models of a
// configuration in one transaction. An existing household with the same
// person id is replaced.
func (s *SQLite) ImportConfiguration(ctx context.Context, cfg *domain.Configuration) error {
	history, err := GrowthHistoryFromConfiguration(cfg)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := savePerson(ctx, tx, HouseholdFromConfiguration(cfg)); err != nil {
			return err
		}
		if err := saveGrowthHistory(ctx, tx, history); err != nil {
			return err
		}
		for _, m := range cfg.Models {
			if err := saveModel(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveHousehold stores or replaces a person with their accounts
func (s *SQLite) SaveHousehold(ctx context.Context, h Household) error {
	return s.inTx(ctx, func(tx *sql.Tx) error { return savePerson(ctx, tx, h) })
}

// SaveGrowthHistory replaces the growth table
func (s *SQLite) SaveGrowthHistory(ctx context.Context, history *calculation.GrowthHistory) error {
	return s.inTx(ctx, func(tx *sql.Tx) error { return saveGrowthHistory(ctx, tx, history) })
}

func (s *SQLite) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func savePerson(ctx context.Context, tx *sql.Tx, h Household) error {
	p := h.Person
	if p.ID == "" {
		return fmt.Errorf("%w: person id is required", domain.ErrConfiguration)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM people WHERE id = ?`, p.ID); err != nil {
		return fmt.Errorf("delete person %s: %w", p.ID, err)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO people
		(id, name, birth_date, annual_salary, annual_bonus, bonus_month, match_401k_percent, full_social_security_benefit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.BirthDate.Format(dateLayout), p.AnnualSalary.String(), p.AnnualBonus.String(),
		int(p.BonusMonth), p.Match401kPercent.String(), p.FullSocialSecurityBenefit.String())
	if err != nil {
		return fmt.Errorf("insert person %s: %w", p.ID, err)
	}

	for i, acct := range h.Investments {
		if _, err := tx.ExecContext(ctx, `INSERT INTO investment_accounts (person_id, id, ordinal, name, type) VALUES (?, ?, ?, ?, ?)`,
			p.ID, acct.ID, i, acct.Name, acct.Type.String()); err != nil {
			return fmt.Errorf("insert account %s: %w", acct.ID, err)
		}
		for j, pos := range acct.Positions {
			if _, err := tx.ExecContext(ctx, `INSERT INTO investment_positions
				(person_id, account_id, id, ordinal, open, entry_date, quantity, price, initial_cost, bucket)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ID, acct.ID, pos.ID, j, pos.Open, pos.EntryDate.Format(dateLayout),
				pos.Quantity.String(), pos.Price.String(), pos.InitialCost.String(), pos.Bucket.String()); err != nil {
				return fmt.Errorf("insert position %s/%s: %w", acct.ID, pos.ID, err)
			}
		}
	}
	for i, acct := range h.Debts {
		if _, err := tx.ExecContext(ctx, `INSERT INTO debt_accounts (person_id, id, ordinal, name) VALUES (?, ?, ?, ?)`,
			p.ID, acct.ID, i, acct.Name); err != nil {
			return fmt.Errorf("insert debt account %s: %w", acct.ID, err)
		}
		for j, pos := range acct.Positions {
			if _, err := tx.ExecContext(ctx, `INSERT INTO debt_positions
				(person_id, account_id, id, ordinal, open, entry_date, balance, apr, monthly_payment)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ID, acct.ID, pos.ID, j, pos.Open, pos.EntryDate.Format(dateLayout),
				pos.Balance.String(), pos.APR.String(), pos.MonthlyPayment.String()); err != nil {
				return fmt.Errorf("insert debt position %s/%s: %w", acct.ID, pos.ID, err)
			}
		}
	}
	return nil
}

func saveGrowthHistory(ctx context.Context, tx *sql.Tx, history *calculation.GrowthHistory) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM price_history`); err != nil {
		return fmt.Errorf("clear price history: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO price_history (month, rate, source) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare price history insert: %w", err)
	}
	defer stmt.Close()
	for _, o := range history.Observations {
		if _, err := stmt.ExecContext(ctx, o.Month.Format(dateLayout), o.Rate.String(), history.Source); err != nil {
			return fmt.Errorf("insert price history %s: %w", o.Month.Format("2006-01"), err)
		}
	}
	return nil
}

func saveModel(ctx context.Context, tx execer, m domain.Model) error {
	if m.ID == "" {
		return fmt.Errorf("%w: model id is required", domain.ErrConfiguration)
	}
	definition, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode model %s: %w", m.ID, err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO models (id, name, version, generation, parent_a, parent_b, definition, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, version = excluded.version,
			generation = excluded.generation, parent_a = excluded.parent_a,
			parent_b = excluded.parent_b, definition = excluded.definition`,
		m.ID, m.Name, m.Version, m.Generation, m.ParentA, m.ParentB, string(definition), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("save model %s: %w", m.ID, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLite) GetPerson(ctx context.Context, id string) (domain.Person, error) {
	var (
		p                                    domain.Person
		birth, salary, bonus, match, benefit string
		bonusMonth                           int
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, birth_date, annual_salary, annual_bonus, bonus_month,
		match_401k_percent, full_social_security_benefit FROM people WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &birth, &salary, &bonus, &bonusMonth, &match, &benefit)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Person{}, fmt.Errorf("person %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Person{}, fmt.Errorf("query person %s: %w", id, err)
	}

	p.BonusMonth = time.Month(bonusMonth)
	var sc scanner
	p.BirthDate = sc.date(birth)
	p.AnnualSalary = sc.decimal(salary)
	p.AnnualBonus = sc.decimal(bonus)
	p.Match401kPercent = sc.decimal(match)
	p.FullSocialSecurityBenefit = sc.decimal(benefit)
	if sc.err != nil {
		return domain.Person{}, fmt.Errorf("person %s: %w", id, sc.err)
	}
	return p, nil
}

func (s *SQLite) FetchInvestmentAccounts(ctx context.Context, personID string) ([]domain.InvestmentAccount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT a.id, a.name, a.type,
			p.id, p.open, p.entry_date, p.quantity, p.price, p.initial_cost, p.bucket
		FROM investment_accounts a
		LEFT JOIN investment_positions p ON p.person_id = a.person_id AND p.account_id = a.id AND p.open = 1
		WHERE a.person_id = ?
		ORDER BY a.ordinal, p.ordinal`, personID)
	if err != nil {
		return nil, fmt.Errorf("query investment accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.InvestmentAccount
	for rows.Next() {
		var (
			acctID, name, typ                      string
			posID, entry, qty, price, cost, bucket sql.NullString
			open                                   sql.NullBool
		)
		if err := rows.Scan(&acctID, &name, &typ, &posID, &open, &entry, &qty, &price, &cost, &bucket); err != nil {
			return nil, fmt.Errorf("scan investment account: %w", err)
		}
		if n := len(accounts); n == 0 || accounts[n-1].ID != acctID {
			at, err := domain.ParseAccountType(typ)
			if err != nil {
				return nil, fmt.Errorf("%w: account %s: %w", domain.ErrDataIntegrity, acctID, err)
			}
			accounts = append(accounts, domain.InvestmentAccount{ID: acctID, Name: name, Type: at})
		}
		if !posID.Valid {
			continue
		}
		var sc scanner
		pos := domain.InvestmentPosition{
			ID:          posID.String,
			Open:        open.Bool,
			EntryDate:   sc.date(entry.String),
			Quantity:    sc.decimal(qty.String),
			Price:       sc.decimal(price.String),
			InitialCost: sc.decimal(cost.String),
		}
		pos.Bucket, err = domain.ParseBucketType(bucket.String)
		if err != nil {
			sc.fail(err)
		}
		if sc.err != nil {
			return nil, fmt.Errorf("position %s/%s: %w", acctID, posID.String, sc.err)
		}
		last := &accounts[len(accounts)-1]
		last.Positions = append(last.Positions, pos)
	}
	return accounts, rows.Err()
}

func (s *SQLite) FetchDebtAccounts(ctx context.Context, personID string) ([]domain.DebtAccount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT a.id, a.name,
			p.id, p.open, p.entry_date, p.balance, p.apr, p.monthly_payment
		FROM debt_accounts a
		LEFT JOIN debt_positions p ON p.person_id = a.person_id AND p.account_id = a.id AND p.open = 1
		WHERE a.person_id = ?
		ORDER BY a.ordinal, p.ordinal`, personID)
	if err != nil {
		return nil, fmt.Errorf("query debt accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.DebtAccount
	for rows.Next() {
		var (
			acctID, name                        string
			posID, entry, balance, apr, payment sql.NullString
			open                                sql.NullBool
		)
		if err := rows.Scan(&acctID, &name, &posID, &open, &entry, &balance, &apr, &payment); err != nil {
			return nil, fmt.Errorf("scan debt account: %w", err)
		}
		if n := len(accounts); n == 0 || accounts[n-1].ID != acctID {
			accounts = append(accounts, domain.DebtAccount{ID: acctID, Name: name})
		}
		if !posID.Valid {
			continue
		}
		var sc scanner
		pos := domain.DebtPosition{
			ID:             posID.String,
			Open:           open.Bool,
			EntryDate:      sc.date(entry.String),
			Balance:        sc.decimal(balance.String),
			APR:            sc.decimal(apr.String),
			MonthlyPayment: sc.decimal(payment.String),
		}
		if sc.err != nil {
			return nil, fmt.Errorf("debt position %s/%s: %w", acctID, posID.String, sc.err)
		}
		last := &accounts[len(accounts)-1]
		last.Positions = append(last.Positions, pos)
	}
	return accounts, rows.Err()
}

func (s *SQLite) FetchHistoricalMonthlyGrowth(ctx context.Context) ([]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT month, rate FROM price_history ORDER BY month`)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	var rates []decimal.Decimal
	for rows.Next() {
		var month, rate string
		if err := rows.Scan(&month, &rate); err != nil {
			return nil, fmt.Errorf("scan price history: %w", err)
		}
		var sc scanner
		r := sc.decimal(rate)
		if sc.err != nil {
			return nil, fmt.Errorf("price history %s: %w", month, sc.err)
		}
		rates = append(rates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: price history is empty", domain.ErrDataIntegrity)
	}
	return rates, nil
}

func (s *SQLite) FetchModel(ctx context.Context, id string) (domain.Model, error) {
	var definition string
	err := s.db.QueryRowContext(ctx, `SELECT definition FROM models WHERE id = ?`, id).Scan(&definition)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Model{}, fmt.Errorf("model %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Model{}, fmt.Errorf("query model %s: %w", id, err)
	}
	return decodeModel(id, definition)
}

func (s *SQLite) SaveModel(ctx context.Context, model domain.Model) error {
	return saveModel(ctx, s.db, model)
}

// ListModels returns every stored model, oldest first
func (s *SQLite) ListModels(ctx context.Context) ([]domain.Model, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, definition FROM models ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	defer rows.Close()

	var models []domain.Model
	for rows.Next() {
		var id, definition string
		if err := rows.Scan(&id, &definition); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		m, err := decodeModel(id, definition)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

func decodeModel(id, definition string) (domain.Model, error) {
	var m domain.Model
	if err := yaml.Unmarshal([]byte(definition), &m); err != nil {
		return domain.Model{}, fmt.Errorf("%w: decode model %s: %w", domain.ErrDataIntegrity, id, err)
	}
	return m, nil
}

// SaveRunResult stores the aggregated run. Per-life results are not kept.
func (s *SQLite) SaveRunResult(ctx context.Context, result calculation.RunResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", result.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO run_results
		(id, model_id, lives, final_bankruptcy_rate, median_fun_points, created_at, body)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.ID.String(), result.ModelID, result.Lives, result.FinalBankruptcyRate.String(),
		result.MedianFunPoints.String(), result.CreatedAt.UnixNano(), string(body))
	if err != nil {
		return fmt.Errorf("save run %s: %w", result.ID, err)
	}
	return nil
}

// RunResults returns the saved runs of a model, oldest first
func (s *SQLite) RunResults(ctx context.Context, modelID string) ([]calculation.RunResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM run_results WHERE model_id = ? ORDER BY created_at`, modelID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []calculation.RunResult
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var r calculation.RunResult
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, fmt.Errorf("%w: decode run: %w", domain.ErrDataIntegrity, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// scanner converts stored text columns, keeping the first failure
type scanner struct {
	err error
}

func (sc *scanner) fail(err error) {
	if sc.err == nil {
		sc.err = fmt.Errorf("%w: %w", domain.ErrDataIntegrity, err)
	}
}

func (sc *scanner) decimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		sc.fail(err)
	}
	return d
}

func (sc *scanner) date(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		sc.fail(err)
	}
	return t
}
