package vector

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/james-card/cnext/descriptor"
)

func TestToJSONArray(t *testing.T) {
	v, err := New(descriptor.String)
	require.NoError(t, err)
	_, err = v.SetValue(0, "value1", descriptor.String)
	require.NoError(t, err)
	_, err = v.SetValue(1, false, descriptor.Bool)
	require.NoError(t, err)
	_, err = v.SetValue(2, nil, descriptor.Pointer)
	require.NoError(t, err)

	out := v.ToJSON()

	var decoded []any
	require.NoError(t, json.Unmarshal(out, &decoded), "output must be valid JSON: %s", out)
	assert.Equal(t, []any{"value1", false, nil}, decoded)
}

func TestToJSONEmpty(t *testing.T) {
	v, err := New(descriptor.String)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(v.ToJSON()))
}

func TestToJSONNested(t *testing.T) {
	inner, err := New(descriptor.String)
	require.NoError(t, err)
	_, err = inner.SetValue(0, int64(1), descriptor.Int64)
	require.NoError(t, err)
	_, err = inner.SetValue(1, int64(2), descriptor.Int64)
	require.NoError(t, err)

	outer, err := New(descriptor.String)
	require.NoError(t, err)
	_, err = outer.SetValue(0, "before", descriptor.String)
	require.NoError(t, err)
	_, err = outer.SetOwned(1, nil, inner, TypeDescriptor)
	require.NoError(t, err)

	var decoded []any
	require.NoError(t, json.Unmarshal(outer.ToJSON(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "before", decoded[0])
	assert.Equal(t, []any{float64(1), float64(2)}, decoded[1])
}

func TestStringRendering(t *testing.T) {
	v, err := New(descriptor.String)
	require.NoError(t, err)
	_, err = v.Set(3, nil, "hello")
	require.NoError(t, err)

	s := v.String()
	assert.True(t, strings.HasPrefix(s, "[\n"))
	assert.Contains(t, s, "size=1")
	assert.Contains(t, s, "capacity=4")
	assert.Contains(t, s, "[3]=hello")
}

func TestToXML(t *testing.T) {
	v, err := New(descriptor.String)
	require.NoError(t, err)
	_, err = v.SetValue(0, "a", descriptor.String)
	require.NoError(t, err)
	_, err = v.SetValue(1, int64(2), descriptor.Int64)
	require.NoError(t, err)

	out := string(v.ToXML("list", false))
	assert.True(t, strings.HasPrefix(out, "<list>"))
	assert.True(t, strings.HasSuffix(out, "</list>"))
	assert.Contains(t, out, "<item>a</item>")
	assert.Contains(t, out, "<item>2</item>")
}
