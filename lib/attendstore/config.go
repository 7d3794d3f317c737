package attendstore

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	devenv "misattend/dev/env"
	"misattend/lib/attendstore/db"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config selects where history is kept, a remote libsql url takes precedence over
// a local sqlite file.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Config) OpenDB() (*sql.DB, error) {
	if config.Url == "" {
		if config.File == "" {
			return nil, fmt.Errorf("history: neither a file nor a url was specified")
		}
		if config.File == ":memory:" {
			database, err := sql.Open("sqlite", config.File)
			if err != nil {
				return nil, err
			}
			// every connection would otherwise see its own empty database
			database.SetMaxOpenConns(1)
			return database, nil
		}
		dbpath, err := devenv.ResolvePath(config.File)
		if err != nil {
			return nil, err
		}
		return sql.Open("sqlite", dbpath)
	}

	values := url.Values{}
	if config.AuthToken != "" {
		values.Add("authToken", config.AuthToken)
	}
	dburl := config.Url
	if len(values) > 0 {
		sep := "?"
		if strings.Contains(dburl, "?") {
			sep = "&"
		}
		dburl += sep + values.Encode()
	}
	return sql.Open("libsql", dburl)
}

// Open opens the configured database and makes sure the schema exists.
func Open(ctx context.Context, config Config) (Store, *sql.DB, error) {
	database, err := config.OpenDB()
	if err != nil {
		return Store{}, nil, err
	}
	_, err = database.ExecContext(ctx, db.Schema)
	if err != nil {
		database.Close()
		return Store{}, nil, fmt.Errorf("apply history schema: %w", err)
	}
	return NewStore(database), database, nil
}
