package features

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// PostGISConfig holds the connection settings for a PostGIS source.
type PostGISConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c PostGISConfig) connString() string {
	ssl := c.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, ssl)
}

// PostGISSource loads polygon tables from a PostGIS database.
type PostGISSource struct {
	db *sql.DB
}

// NewPostGISSource connects and verifies the database is reachable.
func NewPostGISSource(cfg PostGISConfig) (*PostGISSource, error) {
	db, err := sql.Open("postgres", cfg.connString())
	if err != nil {
		return nil, fmt.Errorf("features: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("features: ping database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &PostGISSource{db: db}, nil
}

// Close releases the connection pool.
func (s *PostGISSource) Close() error {
	return s.db.Close()
}

// LoadPolygons reads a polygon table into a feature Table. geomCol is
// fetched as WKT in lon/lat (ST_Transform to 4326); attrs name the
// attribute columns to carry along.
func (s *PostGISSource) LoadPolygons(table, geomCol string, attrs ...string) (Table, error) {
	cols := fmt.Sprintf("ST_AsText(ST_Transform(%s, 4326))", quoteIdent(geomCol))
	for _, a := range attrs {
		cols += ", " + quoteIdent(a) + "::text"
	}
	rows, err := s.db.Query(fmt.Sprintf("SELECT %s FROM %s", cols, quoteIdent(table)))
	if err != nil {
		return Table{}, fmt.Errorf("features: query %s: %w", table, err)
	}
	defer rows.Close()

	t := Table{Columns: attrs}
	for rows.Next() {
		dest := make([]any, 1+len(attrs))
		var wkt sql.NullString
		dest[0] = &wkt
		vals := make([]sql.NullString, len(attrs))
		for i := range vals {
			dest[i+1] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return Table{}, fmt.Errorf("features: scan %s: %w", table, err)
		}
		if !wkt.Valid {
			continue
		}
		rings, err := ParseWKTPolygon(wkt.String)
		if err != nil {
			return Table{}, fmt.Errorf("features: %s geometry: %w", table, err)
		}
		f := &Feature{Rings: rings, Attrs: make(map[string]string, len(attrs))}
		for i, a := range attrs {
			if vals[i].Valid {
				f.Attrs[a] = vals[i].String
			}
		}
		f.Valid = validFeature(f.Rings)
		t.Features = append(t.Features, f)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("features: read %s: %w", table, err)
	}
	return t, nil
}

// quoteIdent double-quotes a SQL identifier.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
