package stock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/stock"
	"github.com/jhoicas/taller-api/internal/application/stock/stocktest"
	"github.com/jhoicas/taller-api/pkg/logger"
)

func newScanner(db *stocktest.DB, rec *stocktest.Recorder, debounce time.Duration) *stock.LowStockScanner {
	return stock.NewLowStockScanner(
		db.Repos().Levels, db.OrgRepo(), rec, logger.Nop(),
		debounce, time.Hour, true,
	)
}

func waitEvents(t *testing.T, rec *stocktest.Recorder, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(rec.Kinds()) >= n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("esperaba %d eventos, hay %d", n, len(rec.Kinds()))
}

func TestLowStockScanner_TriggersColapsanEnUnScan(t *testing.T) {
	db := stocktest.NewDB()
	db.SeedOrganization(testOrgID, "Taller")
	db.SeedProduct(testOrgID, "p1", "SKU-1", false, 5)
	db.SeedLevel(testOrgID, "p1", "b1", 3, 0) // disponible 3 <= reorden 5

	rec := &stocktest.Recorder{}
	s := newScanner(db, rec, 30*time.Millisecond)

	// varios pedidos dentro de la ventana: un solo scan
	for i := 0; i < 5; i++ {
		s.Trigger(testOrgID)
	}
	waitEvents(t, rec, 1)
	time.Sleep(100 * time.Millisecond)
	kinds := rec.Kinds()
	require.Len(t, kinds, 1)
	assert.Equal(t, stock.KindLowStock, kinds[0])
}

func TestLowStockScanner_SinFaltantesNoEmite(t *testing.T) {
	db := stocktest.NewDB()
	db.SeedOrganization(testOrgID, "Taller")
	db.SeedProduct(testOrgID, "p1", "SKU-1", false, 2)
	db.SeedLevel(testOrgID, "p1", "b1", 9, 0)

	rec := &stocktest.Recorder{}
	s := newScanner(db, rec, 20*time.Millisecond)
	s.Trigger(testOrgID)
	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, rec.Kinds())
}

func TestLowStockScanner_RespetaAlertasApagadasDelTenant(t *testing.T) {
	db := stocktest.NewDB()
	org := db.SeedOrganization(testOrgID, "Taller")
	org.LowStockAlertsEnabled = false
	db.SeedProduct(testOrgID, "p1", "SKU-1", false, 5)
	db.SeedLevel(testOrgID, "p1", "b1", 1, 0)

	rec := &stocktest.Recorder{}
	s := newScanner(db, rec, 20*time.Millisecond)
	s.Trigger(testOrgID)
	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, rec.Kinds())
}

func TestLowStockScanner_IgnoraSusPropiosEventos(t *testing.T) {
	db := stocktest.NewDB()
	db.SeedOrganization(testOrgID, "Taller")
	db.SeedProduct(testOrgID, "p1", "SKU-1", false, 5)
	db.SeedLevel(testOrgID, "p1", "b1", 1, 0)

	rec := &stocktest.Recorder{}
	s := newScanner(db, rec, 20*time.Millisecond)
	s.HandleEvent(stock.Event{OrganizationID: testOrgID, Kind: stock.KindLowStock})
	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, rec.Kinds(), "low-stock no debe retroalimentar el scanner")
}

func TestLowStockScanner_Snapshot_CondicionEsMenorOIgual(t *testing.T) {
	db := stocktest.NewDB()
	db.SeedOrganization(testOrgID, "Taller")
	db.SeedProduct(testOrgID, "justo", "SKU-J", false, 4)
	db.SeedLevel(testOrgID, "justo", "b1", 6, 2) // disponible 4 == reorden 4
	db.SeedProduct(testOrgID, "sobra", "SKU-S", false, 4)
	db.SeedLevel(testOrgID, "sobra", "b1", 9, 0) // disponible 9 > reorden

	rec := &stocktest.Recorder{}
	s := newScanner(db, rec, time.Second)

	items, err := s.Snapshot(testCtx(), testOrgID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "justo", items[0].ProductID)
}
