package themes

import (
	"testing"

	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestEveryCatalogCategoryHasAStyle(t *testing.T) {
	catalog := model.DefaultCatalog()
	for _, list := range [][]model.Category{catalog.Expense, catalog.Income} {
		for _, c := range list {
			_, ok := categoryStyles[c.ID]
			assert.True(t, ok, "no style for %s", c.ID)
		}
	}
}

func TestGetCategoryStyle_Fallback(t *testing.T) {
	assert.Equal(t, fallbackStyle, GetCategoryStyle("pets"))
	assert.Equal(t, "☕", GetCategoryStyle("cafe").Icon)
}

func TestGetTheme(t *testing.T) {
	assert.Equal(t, CatppuccinMocha.Primary, GetTheme("catppuccin-mocha").Primary)
	assert.Equal(t, Default.Primary, GetTheme("unknown").Primary)
}
