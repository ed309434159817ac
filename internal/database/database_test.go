package database

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appconfig "github.com/GTDGit/devhub_api/internal/config"
)

func TestBackoff(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, backoff(1))
	assert.Equal(t, time.Second, backoff(2))
	assert.Equal(t, 4*time.Second, backoff(4))
	assert.Equal(t, maxDelay, backoff(5))
	assert.Equal(t, maxDelay, backoff(40))
}

func TestPostgresDSNEscapesCredentials(t *testing.T) {
	dsn := postgresDSN(&appconfig.DatabaseConfig{
		Host: "db", Port: "5432", User: "dev hub", Password: "p@ss:word", Name: "devhub", SSLMode: "disable",
	})
	assert.Equal(t, "postgres://dev+hub:p%40ss%3Aword@db:5432/devhub?sslmode=disable", dsn)
}

func TestConnectRejectsNilConfig(t *testing.T) {
	_, err := Connect(nil)
	assert.Error(t, err)

	_, _, err = ConnectMongo(nil)
	assert.Error(t, err)
}

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := retry("test", func() error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}
