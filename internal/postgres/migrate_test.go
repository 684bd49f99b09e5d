package postgres

import (
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreEmbeddedInOrder(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, "001_init", migrations[0].Version)
	for _, table := range []string{"stores", "products", "skus", "customers", "invoices", "invoice_sequences"} {
		assert.True(t, strings.Contains(migrations[0].SQL, "CREATE TABLE IF NOT EXISTS "+table+" "), table)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	constraint, ok := IsUniqueViolation(&pq.Error{Code: "23505", Constraint: "uq_invoices_store_number"})
	assert.True(t, ok)
	assert.Equal(t, "uq_invoices_store_number", constraint)

	_, ok = IsUniqueViolation(&pq.Error{Code: "23503"})
	assert.False(t, ok)
}
