package sale_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/sale"
	"github.com/jhoicas/taller-api/internal/application/stock"
	"github.com/jhoicas/taller-api/internal/application/stock/stocktest"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/tenant"
)

const orgID = "org-1"

func testCtx() context.Context {
	return tenant.WithUser(tenant.WithOrganization(context.Background(), orgID), "user-1")
}

func newFixture(t *testing.T, onHand int64) (*stocktest.DB, *sale.UseCase, *stocktest.Recorder) {
	t.Helper()
	db := stocktest.NewDB()
	db.SeedOrganization(orgID, "Taller")
	db.SeedProduct(orgID, "p1", "SKU-1", false, 0)
	db.SeedBin(orgID, "b1", "A-01")
	db.SeedLevel(orgID, "p1", "b1", onHand, 0)
	rec := &stocktest.Recorder{}
	uc := sale.NewUseCase(db.Runner(), stock.NewCoordinator(), rec)
	return db, uc, rec
}

func createSale(t *testing.T, uc *sale.UseCase, qty int64) *entity.Sale {
	t.Helper()
	s, err := uc.Create(testCtx(), dto.CreateSaleRequest{
		Items: []dto.CreateSaleItemRequest{{ProductID: "p1", Qty: qty}},
	})
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	return s
}

func TestSale_Create_ReservaCompleta(t *testing.T) {
	db, uc, rec := newFixture(t, 10)

	s := createSale(t, uc, 4)
	assert.Equal(t, entity.SaleStatusReserved, s.Status)
	assert.Equal(t, int64(4), s.Items[0].QtyReserved)
	assert.NotNil(t, s.ReservedAt)
	assert.Nil(t, s.BackorderedAt)
	assert.Equal(t, int64(4), db.Level("p1", "b1").Reserved)
	assert.Equal(t, []string{stock.KindSaleCreated}, rec.Kinds())
}

func TestSale_Create_ParcialQuedaEnBackorder(t *testing.T) {
	db, uc, _ := newFixture(t, 3)

	s := createSale(t, uc, 5)
	assert.Equal(t, entity.SaleStatusBackorder, s.Status)
	assert.Equal(t, int64(3), s.Items[0].QtyReserved)
	assert.NotNil(t, s.ReservedAt, "la reserva parcial también sella ReservedAt")
	assert.NotNil(t, s.BackorderedAt)
	assert.Equal(t, int64(3), db.Level("p1", "b1").Reserved)
}

func TestSale_Reserve_ReintentaSoloElFaltante(t *testing.T) {
	db, uc, _ := newFixture(t, 3)
	s := createSale(t, uc, 5)

	// llega mercadería
	db.Level("p1", "b1").OnHand = 9

	s, err := uc.Reserve(testCtx(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusReserved, s.Status)
	assert.Equal(t, int64(5), s.Items[0].QtyReserved)
	assert.Equal(t, int64(5), db.Level("p1", "b1").Reserved)
}

func TestSale_Complete_ConsumeLaReserva(t *testing.T) {
	db, uc, rec := newFixture(t, 10)
	s := createSale(t, uc, 4)

	s, err := uc.Complete(testCtx(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusComplete, s.Status)
	assert.NotNil(t, s.CompletedAt)
	assert.Equal(t, int64(4), s.Items[0].QtyShipped)
	assert.Equal(t, int64(0), s.Items[0].QtyReserved)

	lvl := db.Level("p1", "b1")
	assert.Equal(t, int64(6), lvl.OnHand)
	assert.Equal(t, int64(0), lvl.Reserved)

	// queda invoice_sale en el log
	var invoiced int64
	for _, m := range db.Movements() {
		if m.Reason == entity.MoveReasonInvoiceSale {
			invoiced += m.Qty
		}
	}
	assert.Equal(t, int64(4), invoiced)
	assert.Equal(t, []string{stock.KindSaleCreated, stock.KindSaleComplete}, rec.Kinds())
}

func TestSale_Complete_RechazadoEnBackorder(t *testing.T) {
	_, uc, _ := newFixture(t, 2)
	s := createSale(t, uc, 5)

	_, err := uc.Complete(testCtx(), s.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestSale_Cancel_LiberaLaReserva(t *testing.T) {
	db, uc, rec := newFixture(t, 10)
	s := createSale(t, uc, 4)

	s, err := uc.Cancel(testCtx(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCanceled, s.Status)
	assert.Equal(t, int64(0), s.Items[0].QtyReserved)
	assert.Equal(t, int64(0), db.Level("p1", "b1").Reserved)
	assert.Equal(t, int64(10), db.Level("p1", "b1").OnHand)

	// cancelar de nuevo es no-op sin evento
	_, err = uc.Cancel(testCtx(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{stock.KindSaleCreated, stock.KindSaleCancel}, rec.Kinds())
}

func TestSale_Cancel_ProhibidoTrasComplete(t *testing.T) {
	_, uc, _ := newFixture(t, 10)
	s := createSale(t, uc, 2)

	_, err := uc.Complete(testCtx(), s.ID)
	require.NoError(t, err)

	_, err = uc.Cancel(testCtx(), s.ID)
	derr := domain.AsDomainError(err)
	require.NotNil(t, derr)
	assert.Equal(t, domain.CodeCompletedSaleLocked, derr.Code)
}

func TestSale_UpdateDetails_SoloVentasAbiertas(t *testing.T) {
	_, uc, _ := newFixture(t, 10)
	s := createSale(t, uc, 2)

	notes := "entrega en mostrador"
	s, err := uc.UpdateDetails(testCtx(), s.ID, dto.UpdateSaleRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, s.Notes)

	_, err = uc.Cancel(testCtx(), s.ID)
	require.NoError(t, err)

	_, err = uc.UpdateDetails(testCtx(), s.ID, dto.UpdateSaleRequest{Notes: &notes})
	derr := domain.AsDomainError(err)
	require.NotNil(t, derr)
	assert.Equal(t, domain.CodeCanceledSaleLocked, derr.Code)
}

func TestSale_RechazaProductosSerializados(t *testing.T) {
	db, uc, rec := newFixture(t, 10)
	db.SeedProduct(orgID, "ser", "SKU-SER", true, 0)
	db.SeedLevel(orgID, "ser", "b1", 1, 0)
	db.SeedSerial(orgID, "sn1", "ser", "SN-001", "b1")

	_, err := uc.Create(testCtx(), dto.CreateSaleRequest{
		Items: []dto.CreateSaleItemRequest{{ProductID: "ser", Qty: 1}},
	})
	derr := domain.AsDomainError(err)
	require.NotNil(t, derr)
	assert.Equal(t, domain.CodeSerialsRequired, derr.Code)

	// la venta rechazada no toca niveles ni seriales
	assert.Equal(t, int64(1), db.Level("ser", "b1").OnHand)
	assert.Equal(t, int64(0), db.Level("ser", "b1").Reserved)
	assert.Equal(t, entity.SerialStatusAvailable, db.Serial("sn1").Status)
	assert.Empty(t, rec.Kinds())
}

func TestSale_Reserve_RechazaItemSerializadoPreexistente(t *testing.T) {
	db, uc, _ := newFixture(t, 10)
	p := db.SeedProduct(orgID, "ser", "SKU-SER", false, 0)
	db.SeedLevel(orgID, "ser", "b1", 0, 0)

	s, err := uc.Create(testCtx(), dto.CreateSaleRequest{
		Items: []dto.CreateSaleItemRequest{{ProductID: "ser", Qty: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, entity.SaleStatusBackorder, s.Status)

	// el producto pasa a serializado con la venta ya en backorder
	p.TrackSerial = true
	db.Level("ser", "b1").OnHand = 2

	_, err = uc.Reserve(testCtx(), s.ID)
	derr := domain.AsDomainError(err)
	require.NotNil(t, derr)
	assert.Equal(t, domain.CodeSerialsRequired, derr.Code)
	assert.Equal(t, int64(0), db.Level("ser", "b1").Reserved)
}

func TestSale_Create_ValidaEntrada(t *testing.T) {
	_, uc, _ := newFixture(t, 10)

	_, err := uc.Create(testCtx(), dto.CreateSaleRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(testCtx(), dto.CreateSaleRequest{
		Items: []dto.CreateSaleItemRequest{{ProductID: "p1", Qty: 0}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(testCtx(), dto.CreateSaleRequest{
		CustomerID: "no-existe",
		Items:      []dto.CreateSaleItemRequest{{ProductID: "p1", Qty: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
