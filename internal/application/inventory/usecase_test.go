package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/inventory"
	"github.com/jhoicas/taller-api/internal/application/stock"
	"github.com/jhoicas/taller-api/internal/application/stock/stocktest"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/internal/domain/tenant"
	"github.com/jhoicas/taller-api/pkg/logger"
)

const orgID = "org-1"

func testCtx() context.Context {
	return tenant.WithUser(tenant.WithOrganization(context.Background(), orgID), "user-1")
}

// countingCache instrumenta el puerto de cache para verificar hits y sets.
type countingCache struct {
	items []repository.ProductStockOverview
	has   bool
	gets  int
	sets  int
}

func (c *countingCache) Get(context.Context, string) ([]repository.ProductStockOverview, bool) {
	c.gets++
	return c.items, c.has
}

func (c *countingCache) Set(_ context.Context, _ string, items []repository.ProductStockOverview) {
	c.sets++
	c.items = items
	c.has = true
}

func newFixture(t *testing.T, cache inventory.OverviewCache) (*stocktest.DB, *inventory.UseCase, *stocktest.Recorder) {
	t.Helper()
	db := stocktest.NewDB()
	db.SeedOrganization(orgID, "Taller")
	db.SeedProduct(orgID, "bulk", "SKU-BULK", false, 3)
	db.SeedBin(orgID, "b1", "A-01")
	db.SeedBin(orgID, "b2", "A-02")
	rec := &stocktest.Recorder{}
	scanner := stock.NewLowStockScanner(
		db.Repos().Levels, db.OrgRepo(), rec, logger.Nop(),
		time.Second, time.Hour, true,
	)
	uc := inventory.NewUseCase(db.Runner(), stock.NewCoordinator(), rec, cache, scanner)
	return db, uc, rec
}

func TestInventory_Move_ReceiveYTransfer(t *testing.T) {
	db, uc, rec := newFixture(t, nil)

	id, err := uc.Move(testCtx(), dto.MoveRequest{
		ProductID: "bulk", Qty: 8, Reason: entity.MoveReasonReceive, ToBinID: "b1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, int64(8), db.Level("bulk", "b1").OnHand)

	_, err = uc.Move(testCtx(), dto.MoveRequest{
		ProductID: "bulk", Qty: 3, Reason: entity.MoveReasonTransfer, FromBinID: "b1", ToBinID: "b2",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), db.Level("bulk", "b1").OnHand)
	assert.Equal(t, int64(3), db.Level("bulk", "b2").OnHand)

	assert.Equal(t, []string{stock.KindMove, stock.KindMove}, rec.Kinds())
}

func TestInventory_Move_AdjustYRMAOut(t *testing.T) {
	db, uc, _ := newFixture(t, nil)
	db.SeedLevel(orgID, "bulk", "b1", 5, 0)

	// alza con to_bin
	_, err := uc.Move(testCtx(), dto.MoveRequest{
		ProductID: "bulk", Qty: 2, Reason: entity.MoveReasonAdjust, ToBinID: "b1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), db.Level("bulk", "b1").OnHand)

	// baja con from_bin
	_, err = uc.Move(testCtx(), dto.MoveRequest{
		ProductID: "bulk", Qty: 1, Reason: entity.MoveReasonAdjust, FromBinID: "b1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), db.Level("bulk", "b1").OnHand)

	// ambos bins a la vez: ambiguo
	_, err = uc.Move(testCtx(), dto.MoveRequest{
		ProductID: "bulk", Qty: 1, Reason: entity.MoveReasonAdjust, FromBinID: "b1", ToBinID: "b2",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Move(testCtx(), dto.MoveRequest{
		ProductID: "bulk", Qty: 2, Reason: entity.MoveReasonRMAOut, FromBinID: "b1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), db.Level("bulk", "b1").OnHand)
}

func TestInventory_Move_RechazaSerializadoYBinFantasma(t *testing.T) {
	db, uc, _ := newFixture(t, nil)
	db.SeedProduct(orgID, "ser", "SKU-SER", true, 0)

	_, err := uc.Move(testCtx(), dto.MoveRequest{
		ProductID: "ser", Qty: 1, Reason: entity.MoveReasonReceive, ToBinID: "b1",
	})
	derr := domain.AsDomainError(err)
	require.NotNil(t, derr)
	assert.Equal(t, domain.CodeSerialsRequired, derr.Code)

	_, err = uc.Move(testCtx(), dto.MoveRequest{
		ProductID: "bulk", Qty: 1, Reason: entity.MoveReasonReceive, ToBinID: "b99",
	})
	derr = domain.AsDomainError(err)
	require.NotNil(t, derr)
	assert.Equal(t, domain.CodeBinMissingForProduct, derr.Code)
}

func TestInventory_AdjustLevels(t *testing.T) {
	db, uc, rec := newFixture(t, nil)
	db.SeedLevel(orgID, "bulk", "b1", 5, 2)

	onHand := int64(9)
	require.NoError(t, uc.AdjustLevels(testCtx(), "bulk", dto.AdjustLevelsRequest{OnHand: &onHand}))
	assert.Equal(t, int64(9), db.Level("bulk", "b1").OnHand)
	assert.Equal(t, []string{stock.KindAdjust}, rec.Kinds())

	require.ErrorIs(t, uc.AdjustLevels(testCtx(), "fantasma", dto.AdjustLevelsRequest{OnHand: &onHand}), domain.ErrNotFound)
}

func TestInventory_MarkFaulty(t *testing.T) {
	db, uc, rec := newFixture(t, nil)
	db.SeedProduct(orgID, "ser", "SKU-SER", true, 0)
	db.SeedLevel(orgID, "ser", "b1", 1, 0)
	db.SeedSerial(orgID, "sn1", "ser", "SN-001", "b1")

	require.NoError(t, uc.MarkFaulty(testCtx(), "sn1"))
	assert.Equal(t, entity.SerialStatusFaulty, db.Serial("sn1").Status)
	assert.Equal(t, int64(0), db.Level("ser", "b1").OnHand)
	require.Len(t, rec.Events, 1)
	assert.Equal(t, "faulty", rec.Events[0].Hint)
}

func TestInventory_Overview_UsaElCache(t *testing.T) {
	cache := &countingCache{}
	db, uc, _ := newFixture(t, cache)
	db.SeedLevel(orgID, "bulk", "b1", 5, 1)

	items, err := uc.Overview(testCtx())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(5), items[0].OnHand)
	assert.Equal(t, 1, cache.sets, "el miss debe poblar el cache")

	// segunda lectura: hit, sin nuevo set
	_, err = uc.Overview(testCtx())
	require.NoError(t, err)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.sets)
}

func TestInventory_LowStock_CorteLiteral(t *testing.T) {
	db, uc, _ := newFixture(t, nil)
	db.SeedLevel(orgID, "bulk", "b1", 5, 2) // disponible 3 == reorden 3

	items, err := uc.LowStock(testCtx())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "bulk", items[0].ProductID)
	assert.Equal(t, int64(3), items[0].Available)
}

func TestInventory_Movements_Paginado(t *testing.T) {
	_, uc, _ := newFixture(t, nil)

	for i := 0; i < 5; i++ {
		_, err := uc.Move(testCtx(), dto.MoveRequest{
			ProductID: "bulk", Qty: 1, Reason: entity.MoveReasonReceive, ToBinID: "b1",
		})
		require.NoError(t, err)
	}

	movs, err := uc.Movements(testCtx(), "bulk", dto.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, movs, 2)

	movs, err = uc.Movements(testCtx(), "bulk", dto.PageRequest{Limit: 10, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}
