package psqlbuilder

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_UsesDollarPlaceholders(t *testing.T) {
	query, args, err := Select("id").From("slots").
		Where(squirrel.Eq{"slot_date": "2025-06-02"}).
		Where(squirrel.Eq{"start_time": "10:00"}).
		ToSql()

	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM slots WHERE slot_date = $1 AND start_time = $2", query)
	assert.Equal(t, []interface{}{"2025-06-02", "10:00"}, args)
}
