package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"listing-cleaner/models"
	"listing-cleaner/utils"
)

const listingColumnCount = 14

// PostgresWriter persists clean tables to PostgreSQL. Every run is stored
// under its own run id; tags go to listing_tags since the vocabulary, and
// with it the column set, changes from run to run.
type PostgresWriter struct {
	db      *sql.DB
	runID   string
	replace bool
}

// NewPostgresWriter opens a connection to PostgreSQL, retrying the ping with
// the given strategy, runs schema migrations and returns a ready-to-use
// PostgresWriter. With replace set, Write clears earlier runs in the same
// transaction that stores the new one.
func NewPostgresWriter(dsn, runID string, replace bool, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db, runID: runID, replace: replace}
	if err := pw.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			run_id           UUID             NOT NULL,
			row_no           INTEGER          NOT NULL,
			listing_id       TEXT             NOT NULL,
			transaction_type TEXT             NOT NULL DEFAULT '',
			object_type      TEXT             NOT NULL DEFAULT '',
			download_date    DATE,
			search_location  TEXT             NOT NULL DEFAULT '',
			price            DOUBLE PRECISION,
			rooms            DOUBLE PRECISION,
			living_area      DOUBLE PRECISION,
			plot_area        DOUBLE PRECISION,
			postal_code      VARCHAR(5)       NOT NULL,
			place            TEXT             NOT NULL DEFAULT '',
			descriptive      JSONB            NOT NULL DEFAULT '{}',
			created_at       TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
			PRIMARY KEY (run_id, row_no)
		);

		CREATE TABLE IF NOT EXISTS listing_tags (
			run_id UUID    NOT NULL,
			row_no INTEGER NOT NULL,
			tag    TEXT    NOT NULL,
			PRIMARY KEY (run_id, row_no, tag),
			FOREIGN KEY (run_id, row_no) REFERENCES listings (run_id, row_no) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_listings_listing_id  ON listings(listing_id);
		CREATE INDEX IF NOT EXISTS idx_listings_postal_code ON listings(postal_code);
		CREATE INDEX IF NOT EXISTS idx_listings_price       ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listing_tags_tag     ON listing_tags(tag);
	`)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Clear deletes all stored runs.
func (pw *PostgresWriter) Clear() error {
	return clearRuns(pw.db)
}

func clearRuns(ex execer) error {
	if _, err := ex.Exec("DELETE FROM listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write batch-inserts all rows of the table under the writer's run id and
// copies the set tag flags into listing_tags.
func (pw *PostgresWriter) Write(table *models.CleanTable) error {
	if len(table.Rows) == 0 {
		return nil
	}

	tx, err := pw.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// earlier runs are only gone once the new run commits
	if pw.replace {
		if err := clearRuns(tx); err != nil {
			return err
		}
	}

	const batchSize = 50
	for i := 0; i < len(table.Rows); i += batchSize {
		end := i + batchSize
		if end > len(table.Rows) {
			end = len(table.Rows)
		}
		query, args, err := pw.insertBatch(table, i, table.Rows[i:end])
		if err != nil {
			return err
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("postgres: insert listings: %w", err)
		}
	}

	if err := pw.copyTags(tx, table); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// insertBatch builds one multi-row INSERT for rows starting at table row offset.
func (pw *PostgresWriter) insertBatch(table *models.CleanTable, offset int, batch []*models.Row) (string, []any, error) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*listingColumnCount)

	for idx, r := range batch {
		descriptive, err := descriptiveJSON(table.Descriptive, r.Descriptive)
		if err != nil {
			return "", nil, fmt.Errorf("postgres: encode descriptive fields of %q: %w", r.ID, err)
		}

		base := idx * listingColumnCount
		ph := make([]string, listingColumnCount)
		for k := range ph {
			ph[k] = fmt.Sprintf("$%d", base+k+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs,
			pw.runID, offset+idx, r.ID, r.TransactionType, r.ObjectType, nullDate(r.DownloadDate),
			r.SearchLocation, r.Price, r.Rooms, r.LivingArea, r.PlotArea, r.PostalCode, r.Place, descriptive)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (run_id, row_no, listing_id, transaction_type, object_type, download_date,
			search_location, price, rooms, living_area, plot_area, postal_code, place, descriptive)
		VALUES %s
		ON CONFLICT (run_id, row_no) DO NOTHING
	`, strings.Join(valueStrings, ","))

	return query, valueArgs, nil
}

func (pw *PostgresWriter) copyTags(tx *sql.Tx, table *models.CleanTable) error {
	stmt, err := tx.Prepare(pq.CopyIn("listing_tags", "run_id", "row_no", "tag"))
	if err != nil {
		return fmt.Errorf("postgres: prepare tag copy: %w", err)
	}
	for i, r := range table.Rows {
		for j, set := range r.Flags {
			if !set {
				continue
			}
			if _, err := stmt.Exec(pw.runID, i, table.Vocabulary[j]); err != nil {
				stmt.Close()
				return fmt.Errorf("postgres: copy tag: %w", err)
			}
		}
	}
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		return fmt.Errorf("postgres: flush tag copy: %w", err)
	}
	return stmt.Close()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchRun rebuilds the clean table stored under the writer's run id,
// used by the insight service to report on what actually landed.
func (pw *PostgresWriter) FetchRun() (*models.CleanTable, error) {
	rows, err := pw.db.Query(`
		SELECT row_no, listing_id, transaction_type, object_type, download_date, search_location,
			price, rooms, living_area, plot_area, postal_code, place, descriptive
		FROM listings
		WHERE run_id = $1
		ORDER BY row_no
	`, pw.runID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch run: %w", err)
	}
	defer rows.Close()

	byRowNo := make(map[int]*models.Row)
	var ordered []*models.Row
	var descriptive []map[string]string
	for rows.Next() {
		var (
			rowNo int
			date  sql.NullTime
			desc  []byte
			r     = &models.Row{}
		)
		if err := rows.Scan(
			&rowNo, &r.ID, &r.TransactionType, &r.ObjectType, &date, &r.SearchLocation,
			&r.Price, &r.Rooms, &r.LivingArea, &r.PlotArea, &r.PostalCode, &r.Place, &desc,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if date.Valid {
			y, m, d := date.Time.Date()
			r.DownloadDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
		m := map[string]string{}
		if err := json.Unmarshal(desc, &m); err != nil {
			return nil, fmt.Errorf("postgres: decode descriptive fields: %w", err)
		}
		byRowNo[rowNo] = r
		ordered = append(ordered, r)
		descriptive = append(descriptive, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: fetch run: %w", err)
	}

	tags, err := pw.fetchTags()
	if err != nil {
		return nil, err
	}

	return assembleTable(ordered, descriptive, byRowNo, tags), nil
}

func (pw *PostgresWriter) fetchTags() (map[int][]string, error) {
	rows, err := pw.db.Query(`SELECT row_no, tag FROM listing_tags WHERE run_id = $1`, pw.runID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[int][]string)
	for rows.Next() {
		var rowNo int
		var tag string
		if err := rows.Scan(&rowNo, &tag); err != nil {
			return nil, fmt.Errorf("postgres: scan tag: %w", err)
		}
		tags[rowNo] = append(tags[rowNo], tag)
	}
	return tags, rows.Err()
}

// assembleTable turns stored rows and their tags back into a clean table.
// Only tags that are set somewhere survive storage, so the vocabulary may
// be smaller than the one the run was encoded with.
func assembleTable(ordered []*models.Row, descriptive []map[string]string, byRowNo map[int]*models.Row, tags map[int][]string) *models.CleanTable {
	t := &models.CleanTable{}

	keySet := map[string]struct{}{}
	for _, m := range descriptive {
		for k := range m {
			keySet[k] = struct{}{}
		}
	}
	for k := range keySet {
		t.Descriptive = append(t.Descriptive, k)
	}
	sort.Strings(t.Descriptive)

	tagSet := map[string]struct{}{}
	for _, ts := range tags {
		for _, tag := range ts {
			tagSet[tag] = struct{}{}
		}
	}
	for tag := range tagSet {
		t.Vocabulary = append(t.Vocabulary, tag)
	}
	sort.Strings(t.Vocabulary)
	index := make(map[string]int, len(t.Vocabulary))
	for i, tag := range t.Vocabulary {
		index[tag] = i
	}

	for i, r := range ordered {
		r.Descriptive = make([]string, len(t.Descriptive))
		for j, k := range t.Descriptive {
			r.Descriptive[j] = descriptive[i][k]
		}
		r.Flags = make([]bool, len(t.Vocabulary))
	}
	for rowNo, ts := range tags {
		r, ok := byRowNo[rowNo]
		if !ok {
			continue
		}
		for _, tag := range ts {
			r.Flags[index[tag]] = true
		}
	}

	t.Rows = ordered
	return t
}

func descriptiveJSON(cols, values []string) (string, error) {
	m := make(map[string]string, len(cols))
	for i, c := range cols {
		if i < len(values) {
			m[c] = values[i]
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
