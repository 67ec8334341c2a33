package purchase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/purchase"
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

func newFixture(t *testing.T) (*stocktest.DB, *purchase.UseCase, *stocktest.Recorder) {
	t.Helper()
	db := stocktest.NewDB()
	db.SeedOrganization(orgID, "Taller")
	db.SeedProduct(orgID, "bulk", "SKU-BULK", false, 0)
	db.SeedProduct(orgID, "ser", "SKU-SER", true, 0)
	db.SeedBin(orgID, "b1", "A-01")
	rec := &stocktest.Recorder{}
	uc := purchase.NewUseCase(db.Runner(), stock.NewCoordinator(), rec)
	return db, uc, rec
}

func TestPurchase_Create(t *testing.T) {
	_, uc, _ := newFixture(t)

	po, err := uc.Create(testCtx(), dto.CreatePurchaseOrderRequest{
		Supplier: "Repuestos SA",
		Lines: []dto.CreatePurchaseOrderLineRequest{
			{ProductID: "bulk", Qty: 10},
			{ProductID: "ser", Qty: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseOrderStatusOrdered, po.Status)
	require.Len(t, po.Lines, 2)

	_, err = uc.Create(testCtx(), dto.CreatePurchaseOrderRequest{Supplier: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(testCtx(), dto.CreatePurchaseOrderRequest{
		Supplier: "X",
		Lines:    []dto.CreatePurchaseOrderLineRequest{{ProductID: "fantasma", Qty: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPurchase_Receive_ParcialYTotal(t *testing.T) {
	db, uc, rec := newFixture(t)

	po, err := uc.Create(testCtx(), dto.CreatePurchaseOrderRequest{
		Supplier: "Repuestos SA",
		Lines:    []dto.CreatePurchaseOrderLineRequest{{ProductID: "bulk", Qty: 10}},
	})
	require.NoError(t, err)
	lineID := po.Lines[0].ID

	po, err = uc.Receive(testCtx(), po.ID, dto.ReceiveRequest{
		Receipts: []dto.ReceiveLineRequest{{LineID: lineID, BinID: "b1", Qty: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseOrderStatusPartiallyReceived, po.Status)
	assert.Equal(t, int64(4), po.Lines[0].QtyReceived)
	assert.Equal(t, int64(4), db.Level("bulk", "b1").OnHand)

	po, err = uc.Receive(testCtx(), po.ID, dto.ReceiveRequest{
		Receipts: []dto.ReceiveLineRequest{{LineID: lineID, BinID: "b1", Qty: 6}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseOrderStatusReceived, po.Status)
	assert.Equal(t, int64(10), db.Level("bulk", "b1").OnHand)

	// orden completa: una tercera recepción es conflicto
	_, err = uc.Receive(testCtx(), po.ID, dto.ReceiveRequest{
		Receipts: []dto.ReceiveLineRequest{{LineID: lineID, BinID: "b1", Qty: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.Equal(t, []string{stock.KindReceive, stock.KindReceive}, rec.Kinds())
}

func TestPurchase_Receive_SerializadoRegistraSeriales(t *testing.T) {
	db, uc, _ := newFixture(t)

	po, err := uc.Create(testCtx(), dto.CreatePurchaseOrderRequest{
		Supplier: "Repuestos SA",
		Lines:    []dto.CreatePurchaseOrderLineRequest{{ProductID: "ser", Qty: 2}},
	})
	require.NoError(t, err)

	po, err = uc.Receive(testCtx(), po.ID, dto.ReceiveRequest{
		Receipts: []dto.ReceiveLineRequest{{
			LineID: po.Lines[0].ID, BinID: "b1", Qty: 2,
			Serials: []string{"SN-100", "SN-101"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseOrderStatusReceived, po.Status)
	assert.Equal(t, int64(2), db.Level("ser", "b1").OnHand)

	err = db.Runner().Run(testCtx(), func(r stock.Repos) error {
		items, err := r.Serials.ListByProduct(testCtx(), "ser")
		require.NoError(t, err)
		require.Len(t, items, 2)
		for _, s := range items {
			assert.Equal(t, entity.SerialStatusAvailable, s.Status)
			require.NotNil(t, s.BinID)
			assert.Equal(t, "b1", *s.BinID)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestPurchase_Receive_Errores(t *testing.T) {
	db, uc, _ := newFixture(t)

	po, err := uc.Create(testCtx(), dto.CreatePurchaseOrderRequest{
		Supplier: "Repuestos SA",
		Lines:    []dto.CreatePurchaseOrderLineRequest{{ProductID: "bulk", Qty: 5}},
	})
	require.NoError(t, err)
	lineID := po.Lines[0].ID

	// línea desconocida
	_, err = uc.Receive(testCtx(), po.ID, dto.ReceiveRequest{
		Receipts: []dto.ReceiveLineRequest{{LineID: "otra", BinID: "b1", Qty: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// bin inexistente
	_, err = uc.Receive(testCtx(), po.ID, dto.ReceiveRequest{
		Receipts: []dto.ReceiveLineRequest{{LineID: lineID, BinID: "b9", Qty: 1}},
	})
	derr := domain.AsDomainError(err)
	require.NotNil(t, derr)
	assert.Equal(t, domain.CodeBinMissingForProduct, derr.Code)

	// recepción por encima de lo ordenado: revierte completa
	_, err = uc.Receive(testCtx(), po.ID, dto.ReceiveRequest{
		Receipts: []dto.ReceiveLineRequest{{LineID: lineID, BinID: "b1", Qty: 9}},
	})
	derr = domain.AsDomainError(err)
	require.NotNil(t, derr)
	assert.Equal(t, domain.CodeReceiptExceedsOrder, derr.Code)
	assert.Nil(t, db.Level("bulk", "b1"), "la recepción fallida no deja stock")
}
