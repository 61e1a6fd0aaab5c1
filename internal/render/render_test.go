package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("ndjson")
	assert.Error(t, err)
}

func TestRenderTable(t *testing.T) {
	table := NewTable("ID", "MAP")
	table.AddRow("1", "Continents.lua")
	table.AddRow("12", "Pangaea.lua")

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatTable).Render(nil, table))
	assert.Equal(t, "ID  MAP\n--  --------------\n1   Continents.lua\n12  Pangaea.lua\n", buf.String())
}

func TestRenderTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatTable).Render(nil, NewTable("ID")))
	assert.Empty(t, buf.String())
}

func TestRenderTSV(t *testing.T) {
	table := NewTable("ID", "MAP")
	table.AddRow("1", "Continents.lua")

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatTSV).Render(nil, table))
	assert.Equal(t, "ID\tMAP\n1\tContinents.lua\n", buf.String())
}

func TestRenderStructured(t *testing.T) {
	value := map[string]int{"games": 3}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatJSON).Render(value, nil))
	assert.JSONEq(t, `{"games": 3}`, buf.String())

	buf.Reset()
	require.NoError(t, NewRenderer(&buf, FormatYAML).Render(value, nil))
	assert.Equal(t, "games: 3\n", buf.String())
}
