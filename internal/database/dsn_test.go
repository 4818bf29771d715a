package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostgresDSN(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "defaults",
			cfg:  Config{User: "mood", Name: "moods"},
			want: "host=localhost port=5432 user=mood dbname=moods TimeZone=UTC application_name=moodtracker sslmode=disable",
		},
		{
			name: "overrides",
			cfg: Config{
				User: "mood", Name: "moods", Host: "db.example.com", Port: 6543, Password: "pw",
				Options: map[string]string{"sslmode": "require", "search_path": "tracker"},
			},
			want: "host=db.example.com port=6543 user=mood dbname=moods password=pw TimeZone=UTC application_name=moodtracker search_path=tracker sslmode=require",
		},
		{
			name: "explicit dsn wins",
			cfg:  Config{DSN: "postgres://elsewhere/db"},
			want: "postgres://elsewhere/db",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dsn, err := postgresDSN(tc.cfg)
			require.NoError(t, err)
			require.Equal(t, tc.want, dsn)
		})
	}

	_, err := postgresDSN(Config{User: "mood"})
	require.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "defaults",
			cfg:  Config{User: "mood", Name: "moods"},
			want: "mood@tcp(127.0.0.1:3306)/moods?charset=utf8mb4&loc=UTC&parseTime=true",
		},
		{
			name: "overrides",
			cfg: Config{
				User: "mood", Password: "pw", Name: "moods", Host: "db.example.com", Port: 3307,
				Options: map[string]string{"tls": "skip-verify", "loc": "Local"},
			},
			want: "mood:pw@tcp(db.example.com:3307)/moods?charset=utf8mb4&loc=Local&parseTime=true&tls=skip-verify",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dsn, err := mysqlDSN(tc.cfg)
			require.NoError(t, err)
			require.Equal(t, tc.want, dsn)
		})
	}

	_, err := mysqlDSN(Config{Host: "localhost"})
	require.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	dsn, err := sqliteDSN(Config{Path: ":memory:"})
	require.NoError(t, err)
	require.Equal(t, sqliteMemoryDSN, dsn)

	dsn, err = sqliteDSN(Config{Path: "moods.sqlite"})
	require.NoError(t, err)
	require.Equal(t, "file:moods.sqlite?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000", dsn)
}
