package product

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/storefront-backend/internal/apperror"
)

const (
	idKeyboard = "11111111-1111-1111-1111-111111111111"
	idMouse    = "22222222-2222-2222-2222-222222222222"
	idHidden   = "33333333-3333-3333-3333-333333333333"
	idBook     = "44444444-4444-4444-4444-444444444444"
)

func strp(s string) *string { return &s }

func seedCatalog() []Product {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return []Product{
		{ID: idKeyboard, Name: "Keyboard", Price: 50000, StockQuantity: 5, IsActive: true, Category: strp("electronics"), CreatedAt: base.Add(3 * time.Hour)},
		{ID: idMouse, Name: "Mouse", Description: strp("wireless keyboard companion"), Price: 20000, StockQuantity: 0, IsActive: true, Category: strp("electronics"), CreatedAt: base.Add(2 * time.Hour)},
		{ID: idHidden, Name: "Hidden", Price: 1000, StockQuantity: 9, IsActive: false, Category: strp("electronics"), CreatedAt: base.Add(4 * time.Hour)},
		{ID: idBook, Name: "Atlas", Price: 15000, StockQuantity: 2, IsActive: true, Category: strp("books"), CreatedAt: base.Add(time.Hour)},
	}
}

func TestListProducts_OnlyActiveNewestFirst(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedCatalog()))

	page, err := svc.ListProducts(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, idKeyboard, page.Items[0].ID)
	assert.Equal(t, idBook, page.Items[2].ID)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.TotalPages)
}

func TestListProducts_FilterSearchSortPaginate(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedCatalog()))
	ctx := context.Background()

	page, err := svc.ListProducts(ctx, Filter{Category: "electronics", Search: "KEYBOARD"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2, "search covers name and description")

	page, err = svc.ListProducts(ctx, Filter{Category: "all", Sort: SortName, PageSize: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Mouse", page.Items[0].Name)
	assert.Equal(t, 2, page.TotalPages)

	page, err = svc.ListProducts(ctx, Filter{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
}

func TestListProducts_HugePageIsEmptyNotError(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedCatalog()))

	page, err := svc.ListProducts(context.Background(), Filter{Page: math.MaxInt, PageSize: MaxPageSize})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.TotalCount)

	f := Filter{Page: math.MaxInt}.Normalize()
	assert.Equal(t, MaxPage, f.Page)
	for _, size := range []int{1, DefaultPageSize, MaxPageSize} {
		f.PageSize = size
		assert.GreaterOrEqual(t, f.Offset(), 0)
	}
}

func TestListAll_IncludesInactive(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedCatalog()))
	page, err := svc.ListAll(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, 4, page.TotalCount)
}

func TestGetProduct(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedCatalog()))
	ctx := context.Background()

	p, err := svc.GetProduct(ctx, idKeyboard)
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", p.Name)

	_, err = svc.GetProduct(ctx, idHidden)
	assert.True(t, apperror.Is(err, apperror.NotFound), "inactive products are not visible")

	_, err = svc.GetProduct(ctx, "not-a-uuid")
	assert.True(t, apperror.Is(err, apperror.NotFound))
}

func TestAdminOperations(t *testing.T) {
	repo := NewInMemoryRepository(seedCatalog())
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Name: "", Price: 10})
	require.True(t, apperror.Is(err, apperror.InvalidInput))

	_, err = svc.Create(ctx, Input{Name: "Lamp", Price: -1})
	require.True(t, apperror.Is(err, apperror.InvalidInput))

	created, err := svc.Create(ctx, Input{Name: " Lamp ", Price: 3000, StockQuantity: 4})
	require.NoError(t, err)
	assert.Equal(t, "Lamp", created.Name)
	assert.True(t, created.IsActive)

	inactive := false
	updated, err := svc.Update(ctx, created.ID, Input{Name: "Desk lamp", Price: 3500, StockQuantity: 4, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, int64(3500), updated.Price)
	assert.False(t, updated.IsActive)

	_, err = svc.SetStock(ctx, created.ID, -1)
	require.True(t, apperror.Is(err, apperror.InvalidInput))

	stocked, err := svc.SetStock(ctx, created.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, stocked.StockQuantity)

	toggled, err := svc.SetActive(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	require.NoError(t, svc.Delete(ctx, created.ID))
	err = svc.Delete(ctx, created.ID)
	assert.True(t, apperror.Is(err, apperror.NotFound))
}
