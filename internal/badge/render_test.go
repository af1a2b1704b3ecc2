package badge

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func TestRenderCatalogGolden(t *testing.T) {
	r := mustLoad(t)
	out := r.RenderCatalog(r.NewSet([]string{"first_sip", "hydration_hero"}))

	g := goldie.New(t)
	g.Assert(t, "catalog", []byte(out))
	require.NotEmpty(t, out)
}
