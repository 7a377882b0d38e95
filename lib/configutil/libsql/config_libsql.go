package configlibsql

import (
	"database/sql"
	"net/url"

	"gymwatch-backend/lib/sqliteutil"

	"github.com/tursodatabase/go-libsql"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

type Struct struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// OpenDB opens the configured database and applies the schema. With
// only a file it is a plain local sqlite database. With a url and a
// file the local file becomes an embedded replica synced against the
// remote. With only a url every query goes over the wire.
func (config Struct) OpenDB(schema string) (*sql.DB, error) {
	if config.Url == "" {
		return sqliteutil.OpenDB(schema, config.File)
	}

	var db *sql.DB
	if config.File == "" {
		values := url.Values{}
		if config.AuthToken != "" {
			values.Add("authToken", config.AuthToken)
		}
		remote, err := sql.Open("libsql", config.Url+"?"+values.Encode())
		if err != nil {
			return nil, err
		}
		db = remote
	} else {
		var opts []libsql.Option
		if config.AuthToken != "" {
			opts = []libsql.Option{
				libsql.WithAuthToken(config.AuthToken),
			}
		}
		connector, err := libsql.NewEmbeddedReplicaConnector(config.File, config.Url, opts...)
		if err != nil {
			return nil, err
		}
		db = sql.OpenDB(connector)
	}

	_, err := db.Exec(schema)
	if err != nil {
		return nil, err
	}
	return db, nil
}
