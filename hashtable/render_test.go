package hashtable

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/james-card/cnext/descriptor"
)

func TestToJSONObject(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)
	_, err = table.Add("name", "gamma")
	require.NoError(t, err)
	_, err = table.Add("count", int64(3), descriptor.Int64)
	require.NoError(t, err)
	_, err = table.Add("ratio", 0.5, descriptor.Float64)
	require.NoError(t, err)

	out := table.ToJSON()

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded), "output must be valid JSON: %s", out)
	assert.Equal(t, "gamma", decoded["name"])
	assert.Equal(t, float64(3), decoded["count"])
	assert.Equal(t, 0.5, decoded["ratio"])
}

func TestToJSONEmptyTable(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(table.ToJSON(), &decoded))
	assert.Empty(t, decoded)
}

func TestToJSONNestedTable(t *testing.T) {
	inner, err := New(descriptor.String)
	require.NoError(t, err)
	_, err = inner.Add("deep", "value")
	require.NoError(t, err)

	outer, err := New(descriptor.String)
	require.NoError(t, err)
	_, err = outer.Add("child", inner, TypeDescriptor)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(outer.ToJSON(), &decoded))
	child, ok := decoded["child"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "value", child["deep"])
}

func TestStringRendering(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)
	_, err = table.Add("k", "v")
	require.NoError(t, err)

	s := table.String()
	assert.True(t, strings.HasPrefix(s, "{\n"))
	assert.Contains(t, s, "size=1")
	assert.Contains(t, s, "tableSize=")
	assert.Contains(t, s, "k=v")
}

func TestToXMLTable(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)
	_, err = table.Add("k", "v")
	require.NoError(t, err)

	out := string(table.ToXML("root", false))
	assert.Equal(t, "<root><k>v</k></root>", out)
}
