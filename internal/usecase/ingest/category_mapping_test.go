package ingest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/usecase/ingest"
)

/* ───────── ヘルパ ───────── */

func allCategories() []*entity.Category {
	names := []string{"Technology", "Science", "Business", "Sports", "Entertainment", "Health", "Politics", "World", "General", "Food", "Travel"}
	out := make([]*entity.Category, 0, len(names))
	for i, n := range names {
		out = append(out, &entity.Category{ID: int64(i + 1), Name: n, Active: true})
	}
	return out
}

func names(cats []*entity.Category) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.Name)
	}
	return out
}

/* ───────── テスト ───────── */

func TestDefaultCategoryMapping_EveryTag(t *testing.T) {
	idx := ingest.NewCategoryIndex(allCategories())
	m := ingest.DefaultCategoryMapping()

	want := map[string]string{
		"tech":          "Technology",
		"technology":    "Technology",
		"science":       "Science",
		"business":      "Business",
		"finance":       "Business",
		"economy":       "Business",
		"sports":        "Sports",
		"sport":         "Sports",
		"entertainment": "Entertainment",
		"health":        "Health",
		"politics":      "Politics",
		"world":         "World",
		"general":       "General",
		"food":          "Food",
		"travel":        "Travel",
	}
	require.Len(t, m, len(want))
	for tag, category := range want {
		t.Run(tag, func(t *testing.T) {
			got := m.Resolve([]string{tag}, idx, "")
			require.Len(t, got, 1)
			assert.Equal(t, category, got[0].Name)
		})
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	idx := ingest.NewCategoryIndex(allCategories())

	got := ingest.DefaultCategoryMapping().Resolve([]string{"  TECH ", "Science"}, idx, "General")

	assert.Equal(t, []string{"Technology", "Science"}, names(got))
}

func TestResolve_DistinctMatches(t *testing.T) {
	idx := ingest.NewCategoryIndex(allCategories())

	got := ingest.DefaultCategoryMapping().Resolve([]string{"tech", "technology", "finance", "business"}, idx, "General")

	assert.Equal(t, []string{"Technology", "Business"}, names(got))
}

func TestResolve_SkipsInactiveCategories(t *testing.T) {
	cats := allCategories()
	cats[0].Active = false // Technology
	idx := ingest.NewCategoryIndex(cats)

	got := ingest.DefaultCategoryMapping().Resolve([]string{"tech", "health"}, idx, "General")

	assert.Equal(t, []string{"Health"}, names(got))
}

func TestResolve_FallbackToGeneral(t *testing.T) {
	idx := ingest.NewCategoryIndex(allCategories())

	got := ingest.DefaultCategoryMapping().Resolve([]string{"unknown", "crypto"}, idx, "General")

	assert.Equal(t, []string{"General"}, names(got))
}

func TestResolve_NoFallbackWhenGeneralMissing(t *testing.T) {
	idx := ingest.NewCategoryIndex([]*entity.Category{{ID: 1, Name: "Technology", Active: true}})

	got := ingest.DefaultCategoryMapping().Resolve([]string{"unknown"}, idx, "General")

	assert.Empty(t, got)
}

func TestResolve_NoTags(t *testing.T) {
	idx := ingest.NewCategoryIndex(allCategories())

	got := ingest.DefaultCategoryMapping().Resolve(nil, idx, "General")

	assert.Equal(t, []string{"General"}, names(got))
}

func TestParseCategoryMapping_OverridesDefaults(t *testing.T) {
	data := []byte("mappings:\n  AI: Technology\n  tech: Science\n")

	m, err := ingest.ParseCategoryMapping(data)
	require.NoError(t, err)

	assert.Equal(t, "Technology", m["ai"])
	assert.Equal(t, "Science", m["tech"])
	assert.Equal(t, "Travel", m["travel"])
}

func TestParseCategoryMapping_Invalid(t *testing.T) {
	_, err := ingest.ParseCategoryMapping([]byte("mappings: [oops"))
	assert.Error(t, err)

	_, err = ingest.ParseCategoryMapping([]byte("mappings:\n  ai: \"\"\n"))
	assert.Error(t, err)
}

func TestLoadCategoryMapping_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mappings:\n  markets: Business\n"), 0o600))

	m, err := ingest.LoadCategoryMapping(path)
	require.NoError(t, err)
	assert.Equal(t, "Business", m["markets"])

	_, err = ingest.LoadCategoryMapping(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
