package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
)

// InstrumentCache caches the broker's instrument master in SQLite so the
// option chain can be materialized without re-downloading the master on
// every run.
type InstrumentCache struct {
	db *sql.DB
}

// NewInstrumentCache opens (or creates) the cache database.
func NewInstrumentCache(dbPath string) (*InstrumentCache, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open instrument cache: %w", err)
	}

	c := &InstrumentCache{db: db}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize instrument schema: %w", err)
	}
	return c, nil
}

func (c *InstrumentCache) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS instruments (
		token TEXT NOT NULL,
		symbol TEXT NOT NULL,
		name TEXT NOT NULL,
		expiry DATE,
		strike REAL,
		lotsize INTEGER,
		exch_seg TEXT NOT NULL,
		instrumenttype TEXT,
		PRIMARY KEY (exch_seg, token)
	);
	CREATE INDEX IF NOT EXISTS idx_instruments_lookup
		ON instruments(name, instrumenttype, expiry, strike);

	CREATE TABLE IF NOT EXISTS sync_meta (
		data_type TEXT PRIMARY KEY,
		synced_at DATETIME NOT NULL
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// ReplaceAll swaps the cached master for a freshly downloaded one and
// stamps the sync time.
func (c *InstrumentCache) ReplaceAll(ctx context.Context, instruments []models.Instrument) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting instrument refresh: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM instruments"); err != nil {
		return fmt.Errorf("clearing instruments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO instruments (token, symbol, name, expiry, strike, lotsize, exch_seg, instrumenttype)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing instrument insert: %w", err)
	}
	defer stmt.Close()

	for _, inst := range instruments {
		var expiry interface{}
		if !inst.Expiry.IsZero() {
			expiry = inst.Expiry.Format("2006-01-02")
		}
		if _, err := stmt.ExecContext(ctx,
			inst.Token, inst.Symbol, inst.Name, expiry,
			inst.Strike, inst.LotSize, string(inst.Exchange), inst.InstrType,
		); err != nil {
			return fmt.Errorf("inserting instrument %s: %w", inst.Symbol, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sync_meta (data_type, synced_at) VALUES ('instruments', ?)
		ON CONFLICT(data_type) DO UPDATE SET synced_at = excluded.synced_at`,
		time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("stamping sync time: %w", err)
	}

	return tx.Commit()
}

// LastSync returns when the master was last refreshed, or zero time.
func (c *InstrumentCache) LastSync(ctx context.Context) (time.Time, error) {
	var t time.Time
	err := c.db.QueryRowContext(ctx,
		"SELECT synced_at FROM sync_meta WHERE data_type = 'instruments'").Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	return t, err
}

// Count returns the number of cached instrument rows.
func (c *InstrumentCache) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM instruments").Scan(&n)
	return n, err
}

// Lookup resolves a single option contract by name, expiry, strike and type.
func (c *InstrumentCache) Lookup(ctx context.Context, name string, expiry time.Time, strike float64, optType models.OptionType) (models.Contract, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT token, symbol, lotsize, exch_seg, expiry
		FROM instruments
		WHERE name = ? AND instrumenttype = 'OPTIDX' AND expiry = ? AND strike = ?
			AND symbol LIKE ?
		LIMIT 1`,
		name, expiry.Format("2006-01-02"), strike, "%"+string(optType),
	)

	var (
		contract models.Contract
		exchange string
		expiryAt sql.NullTime
	)
	if err := row.Scan(&contract.Token, &contract.Symbol, &contract.LotSize, &exchange, &expiryAt); err != nil {
		if err == sql.ErrNoRows {
			return models.Contract{}, apperrors.ErrInstrumentNotFound
		}
		return models.Contract{}, fmt.Errorf("looking up instrument: %w", err)
	}
	contract.Exchange = models.Exchange(exchange)
	if expiryAt.Valid {
		contract.Expiry = models.NewExpiryDate(expiryAt.Time)
	}
	return contract, nil
}

// Expiries returns option expiries for an instrument on or after from,
// sorted ascending.
func (c *InstrumentCache) Expiries(ctx context.Context, name string, from time.Time) ([]time.Time, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT DISTINCT expiry FROM instruments
		WHERE name = ? AND instrumenttype = 'OPTIDX' AND expiry >= ?
		ORDER BY expiry`,
		name, from.Format("2006-01-02"),
	)
	if err != nil {
		return nil, fmt.Errorf("querying expiries: %w", err)
	}
	defer rows.Close()

	// The expiry column is declared DATE, so the driver hands back
	// time.Time values, not the stored text.
	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Chain materializes the option chain for one instrument and expiry by
// pairing the call and put contracts at each strike.
func (c *InstrumentCache) Chain(ctx context.Context, name string, expiry time.Time) (*models.OptionChain, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT token, symbol, strike, lotsize, exch_seg
		FROM instruments
		WHERE name = ? AND instrumenttype = 'OPTIDX' AND expiry = ?
		ORDER BY strike`,
		name, expiry.Format("2006-01-02"),
	)
	if err != nil {
		return nil, fmt.Errorf("querying chain: %w", err)
	}
	defer rows.Close()

	lotSizeDefault := models.DefaultLotSize(name)
	byStrike := map[float64]*models.ChainStrike{}
	var strikes []float64

	for rows.Next() {
		var (
			contract models.Contract
			strike   float64
			exchange string
		)
		if err := rows.Scan(&contract.Token, &contract.Symbol, &strike, &contract.LotSize, &exchange); err != nil {
			return nil, err
		}
		contract.Exchange = models.Exchange(exchange)
		contract.Expiry = models.NewExpiryDate(expiry)
		if contract.LotSize <= 0 {
			contract.LotSize = lotSizeDefault
		}

		row, ok := byStrike[strike]
		if !ok {
			row = &models.ChainStrike{Strike: strike}
			byStrike[strike] = row
			strikes = append(strikes, strike)
		}
		if strings.HasSuffix(contract.Symbol, string(models.OptionCall)) {
			row.Call = contract
		} else if strings.HasSuffix(contract.Symbol, string(models.OptionPut)) {
			row.Put = contract
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Float64s(strikes)
	chain := &models.OptionChain{Instrument: name, Expiry: expiry}
	for _, s := range strikes {
		row := byStrike[s]
		// Only strikes with both sides listed form a usable chain row.
		if row.Call.Token == "" || row.Put.Token == "" {
			continue
		}
		chain.Strikes = append(chain.Strikes, *row)
	}
	return chain, nil
}

// Close closes the underlying database.
func (c *InstrumentCache) Close() error {
	return c.db.Close()
}
