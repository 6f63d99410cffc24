package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	for _, tmpl := range all {
		require.True(t, strings.HasPrefix(tmpl.ID, Prefix), tmpl.ID)
		require.True(t, tmpl.BuiltIn)
		require.NotEmpty(t, tmpl.Name)
		require.NotEmpty(t, tmpl.Items)
		for _, it := range tmpl.Items {
			require.NotEmpty(t, it.Bag, "%s/%s bag should be normalized", tmpl.ID, it.Label)
		}
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	a, ok := Get("builtin-beach")
	require.True(t, ok)
	a.Items[0].Label = "changed"

	b, _ := Get("builtin-beach")
	require.Equal(t, "Swimsuit", b.Items[0].Label)
	require.Equal(t, 2, b.Items[0].Qty)

	_, ok = Get("nope")
	require.False(t, ok)
	require.True(t, IsBuiltIn("builtin-ski"))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("- name: missing id\n  items: []\n"))
	require.Error(t, err)

	_, err = Parse([]byte("- {id: a, name: A}\n- {id: a, name: B}\n"))
	require.ErrorContains(t, err, "duplicate")

	_, err = Parse([]byte("not: [valid"))
	require.Error(t, err)
}

func TestParse_SanitizesItems(t *testing.T) {
	ts, err := Parse([]byte(`
- id: x
  name: X
  items:
    - {label: Socks, group: Clothing}
    - {label: " socks ", group: clothing, qty: 3}
    - {label: "", group: other}
`))
	require.NoError(t, err)
	require.Len(t, ts[0].Items, 1)
	require.Equal(t, 3, ts[0].Items[0].Qty)
	require.Equal(t, "clothing", ts[0].Items[0].Group)
}
