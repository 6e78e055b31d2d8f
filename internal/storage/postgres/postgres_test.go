package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionsDSN(t *testing.T) {
	o := Options{Host: "db", Port: "5433", User: "defusal", Database: "game"}
	assert.Equal(t, "host=db port=5433 user=defusal dbname=game sslmode=disable", o.dsn())

	o.Password = "hunter2"
	assert.Equal(t, "host=db port=5433 user=defusal password=hunter2 dbname=game sslmode=disable", o.dsn())
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PGHOST", "pg.internal")
	t.Setenv("PGPORT", "")
	t.Setenv("PGPASSWORD", "secret")

	o := FromEnv()
	assert.Equal(t, "pg.internal", o.Host)
	assert.Equal(t, "5432", o.Port)
	assert.Equal(t, "secret", o.Password)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 200, clampLimit(0))
	assert.Equal(t, 200, clampLimit(-5))
	assert.Equal(t, 50, clampLimit(50))
	assert.Equal(t, 10000, clampLimit(1 << 20))
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Equal(t, "x", *nullable("x"))
}
