package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListValue(t *testing.T) {
	v, err := StringList{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	v, err = StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestStringListScan(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan([]byte(`["x","y"]`)))
	assert.Equal(t, StringList{"x", "y"}, l)

	require.NoError(t, l.Scan(`["z"]`))
	assert.Equal(t, StringList{"z"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)

	assert.Error(t, l.Scan(42))
}

func TestJSONMapValue(t *testing.T) {
	v, err := JSONMap{"max_concurrent": 1}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"max_concurrent":1}`, v.(string))

	v, err = JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestJSONMapScan(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"update_scope":"bios"}`)))
	assert.Equal(t, "bios", m["update_scope"])

	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)

	assert.Error(t, m.Scan(3.14))
}
