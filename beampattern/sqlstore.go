package beampattern

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	_ "modernc.org/sqlite"

	"github.com/wiless/stationbeam"
)

// SQLStore keeps grids in a SQLite database, one row per frequency.
type SQLStore struct {
	conn *sqlx.DB
}

type gridRow struct {
	Freq      int    `db:"freq_mhz"`
	XT        []byte `db:"xt"`
	YT        []byte `db:"yt"`
	XP        []byte `db:"xp"`
	YP        []byte `db:"yp"`
	CreatedAt int64  `db:"created_at"`
}

// OpenSQLStore opens or creates the database at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open grid db: %w", err)
	}
	s := &SQLStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate grid db: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.conn.Close()
}

func (s *SQLStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS beam_patterns (
		freq_mhz INTEGER PRIMARY KEY,
		xt BLOB NOT NULL,
		yt BLOB NOT NULL,
		xp BLOB NOT NULL,
		yp BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Save writes g, replacing any earlier grid for the same frequency.
func (s *SQLStore) Save(g *Grid) error {
	if err := g.Validate(); err != nil {
		return err
	}
	row := gridRow{Freq: g.Freq, CreatedAt: time.Now().Unix()}
	blobs := []*[]byte{&row.XT, &row.YT, &row.XP, &row.YP}
	for i, m := range []*mat.Dense{g.XT, g.YT, g.XP, g.YP} {
		b, err := m.MarshalBinary()
		if err != nil {
			return fmt.Errorf("grid db: encode %d MHz: %w", g.Freq, err)
		}
		*blobs[i] = b
	}
	_, err := s.conn.NamedExec(`INSERT OR REPLACE INTO beam_patterns
		(freq_mhz, xt, yt, xp, yp, created_at)
		VALUES (:freq_mhz, :xt, :yt, :xp, :yp, :created_at)`, row)
	if err != nil {
		return fmt.Errorf("grid db: save %d MHz: %w", g.Freq, err)
	}
	log.WithField("freq_mhz", g.Freq).Info("beam pattern grid saved to db")
	return nil
}

// Load reads the grid for freqMHz.
func (s *SQLStore) Load(freqMHz int) (*Grid, error) {
	var row gridRow
	err := s.conn.Get(&row, `SELECT freq_mhz, xt, yt, xp, yp, created_at
		FROM beam_patterns WHERE freq_mhz = ?`, freqMHz)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("grid %d MHz: %w", freqMHz, stationbeam.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("grid db: load %d MHz: %w", freqMHz, err)
	}
	g := &Grid{Freq: row.Freq}
	for _, c := range []struct {
		dst  **mat.Dense
		blob []byte
	}{{&g.XT, row.XT}, {&g.YT, row.YT}, {&g.XP, row.XP}, {&g.YP, row.YP}} {
		var m mat.Dense
		if err := m.UnmarshalBinary(c.blob); err != nil {
			return nil, fmt.Errorf("grid %d MHz: %v: %w", freqMHz, err, stationbeam.ErrDataIntegrity)
		}
		*c.dst = &m
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Freqs lists the stored frequencies in ascending order.
func (s *SQLStore) Freqs() ([]int, error) {
	var freqs []int
	if err := s.conn.Select(&freqs, `SELECT freq_mhz FROM beam_patterns ORDER BY freq_mhz`); err != nil {
		return nil, fmt.Errorf("grid db: list: %w", err)
	}
	return freqs, nil
}
