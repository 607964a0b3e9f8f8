package dbx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	q := `INSERT INTO t (a, b, c) VALUES (?, ?, ?)`

	assert.Equal(t, q, Rebind(Question, q))
	assert.Equal(t, `INSERT INTO t (a, b, c) VALUES ($1, $2, $3)`, Rebind(Dollar, q))
	assert.Equal(t, `SELECT 1`, Rebind(Dollar, `SELECT 1`))
}
