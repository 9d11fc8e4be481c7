package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/remoterob/fish-bingo/internal/domain/model"
	"github.com/remoterob/fish-bingo/pkg/metrics"
)

// Drivers accepted by OpenSQL.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS claims (
	   id           TEXT PRIMARY KEY,
	   user_id      TEXT NOT NULL,
	   species_slug TEXT NOT NULL,
	   first_time   INTEGER NOT NULL DEFAULT 0,
	   created_at   BIGINT NOT NULL
	 )`,
	`CREATE INDEX IF NOT EXISTS claims_user_id_idx ON claims (user_id)`,
	`CREATE TABLE IF NOT EXISTS profiles (
	   id           TEXT PRIMARY KEY,
	   display_name TEXT NOT NULL DEFAULT '',
	   gender       TEXT NOT NULL DEFAULT '',
	   club         TEXT NOT NULL DEFAULT '',
	   age_group    TEXT NOT NULL DEFAULT ''
	 )`,
}

// SQLStore persists claims and profiles through database/sql.
type SQLStore struct {
	db       *sql.DB
	driver   string
	settings settings
}

// OpenSQL opens a store on driver ("sqlite" or "postgres") and creates the
// schema when missing.
func OpenSQL(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s dsn is required", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	if driver == DriverSQLite {
		// A single connection keeps :memory: databases alive and serialises writers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &SQLStore{db: db, driver: driver, settings: applyOptions(opts)}, nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Claims implements Store.
func (s *SQLStore) Claims(ctx context.Context) ([]model.Claim, error) {
	defer observe("claims", time.Now())
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, species_slug, first_time, created_at
		   FROM claims
		  ORDER BY created_at, id`)
	if err != nil {
		metrics.RecordStoreError("claims")
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	var out []model.Claim
	for rows.Next() {
		var (
			c         model.Claim
			firstTime int64
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Identifier, &firstTime, &createdAt); err != nil {
			metrics.RecordStoreError("claims")
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		c.FirstTime = firstTime != 0
		c.CreatedAt = fromMillis(createdAt)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreError("claims")
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return out, nil
}

// Profiles implements Store.
func (s *SQLStore) Profiles(ctx context.Context) ([]model.Profile, error) {
	defer observe("profiles", time.Now())
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, display_name, gender, club, age_group FROM profiles ORDER BY id`)
	if err != nil {
		metrics.RecordStoreError("profiles")
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.UserID, &p.DisplayName, &p.Gender, &p.Club, &p.AgeGroup); err != nil {
			metrics.RecordStoreError("profiles")
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreError("profiles")
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

// InsertClaim implements Store.
func (s *SQLStore) InsertClaim(ctx context.Context, c model.Claim) (model.Claim, error) {
	defer observe("insert_claim", time.Now())
	c, err := s.settings.prepareClaim(c)
	if err != nil {
		return model.Claim{}, err
	}
	firstTime := 0
	if c.FirstTime {
		firstTime = 1
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO claims (id, user_id, species_slug, first_time, created_at)
		 VALUES (?, ?, ?, ?, ?)`),
		c.ID, c.UserID, c.Identifier, firstTime, toMillis(c.CreatedAt))
	if err != nil {
		metrics.RecordStoreError("insert_claim")
		return model.Claim{}, fmt.Errorf("insert claim: %w", err)
	}
	return c, nil
}

// UpsertProfile implements Store.
func (s *SQLStore) UpsertProfile(ctx context.Context, p model.Profile) error {
	defer observe("upsert_profile", time.Now())
	p, err := prepareProfile(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO profiles (id, display_name, gender, club, age_group)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   display_name = excluded.display_name,
		   gender       = excluded.gender,
		   club         = excluded.club,
		   age_group    = excluded.age_group`),
		p.UserID, p.DisplayName, p.Gender, p.Club, p.AgeGroup)
	if err != nil {
		metrics.RecordStoreError("upsert_profile")
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}
