package stock_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/stock"
	"github.com/jhoicas/taller-api/internal/application/stock/stocktest"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

func seedBulk(db *stocktest.DB) {
	db.SeedOrganization(testOrgID, "Taller")
	db.SeedProduct(testOrgID, "p1", "SKU-1", false, 0)
	db.SeedBin(testOrgID, "b1", "A-01")
	db.SeedBin(testOrgID, "b2", "A-02")
}

func TestCoordinator_Reserve_LlenadoCodiciosoPorDisponible(t *testing.T) {
	db := stocktest.NewDB()
	seedBulk(db)
	db.SeedLevel(testOrgID, "p1", "b1", 3, 0) // disponible 3
	db.SeedLevel(testOrgID, "p1", "b2", 8, 2) // disponible 6

	coord := stock.NewCoordinator()
	owner := entity.OwnerWorkOrderPart("wo1", "part1")

	run(t, db, func(r stock.Repos) error {
		taken, err := coord.Reserve(testCtx(), r, "p1", 7, owner, false)
		require.NoError(t, err)
		assert.Equal(t, int64(7), taken)
		return nil
	})

	// b2 tenía más disponible: se llena primero (6), el resto (1) sale de b1
	assert.Equal(t, int64(8), db.Level("p1", "b2").Reserved)
	assert.Equal(t, int64(1), db.Level("p1", "b1").Reserved)

	// un movimiento reserve por bin tocado
	reasons := map[string]int{}
	for _, m := range db.Movements() {
		reasons[m.Reason]++
	}
	assert.Equal(t, 2, reasons[entity.MoveReasonReserve])
}

func TestCoordinator_Reserve_SinParcialFallaCompleto(t *testing.T) {
	db := stocktest.NewDB()
	seedBulk(db)
	db.SeedLevel(testOrgID, "p1", "b1", 2, 0)

	coord := stock.NewCoordinator()
	err := runErr(db, func(r stock.Repos) error {
		_, err := coord.Reserve(testCtx(), r, "p1", 5, entity.OwnerWorkOrderPart("wo1", "part1"), false)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(0), db.Level("p1", "b1").Reserved, "la falla no debe dejar reservas a medias")
	assert.Empty(t, db.Movements())
}

func TestCoordinator_Reserve_ParcialDevuelveLoTomado(t *testing.T) {
	db := stocktest.NewDB()
	seedBulk(db)
	db.SeedLevel(testOrgID, "p1", "b1", 2, 0)

	coord := stock.NewCoordinator()
	run(t, db, func(r stock.Repos) error {
		taken, err := coord.Reserve(testCtx(), r, "p1", 5, entity.OwnerSaleItem("s1", "i1"), true)
		require.NoError(t, err)
		assert.Equal(t, int64(2), taken)
		return nil
	})
	assert.Equal(t, int64(2), db.Level("p1", "b1").Reserved)
}

func TestCoordinator_PickYConsume(t *testing.T) {
	db := stocktest.NewDB()
	seedBulk(db)
	db.SeedLevel(testOrgID, "p1", "b1", 10, 0)

	coord := stock.NewCoordinator()
	ownerWO := entity.OwnerWorkOrderPart("wo1", "part1")
	ownerSale := entity.OwnerSaleItem("s1", "i1")

	run(t, db, func(r stock.Repos) error {
		_, err := coord.Reserve(testCtx(), r, "p1", 3, ownerWO, false)
		require.NoError(t, err)
		_, err = coord.Reserve(testCtx(), r, "p1", 4, ownerSale, false)
		require.NoError(t, err)
		return nil
	})

	// pick de la orden de trabajo: baja reserved y on_hand
	run(t, db, func(r stock.Repos) error {
		return coord.Pick(testCtx(), r, "p1", 3, "b1", ownerWO)
	})
	lvl := db.Level("p1", "b1")
	assert.Equal(t, int64(7), lvl.OnHand)
	assert.Equal(t, int64(4), lvl.Reserved)

	// consume de la venta: despacha exactamente lo distribuido por su dueño
	run(t, db, func(r stock.Repos) error {
		shipped, err := coord.Consume(testCtx(), r, "p1", ownerSale)
		require.NoError(t, err)
		assert.Equal(t, int64(4), shipped)
		return nil
	})
	lvl = db.Level("p1", "b1")
	assert.Equal(t, int64(3), lvl.OnHand)
	assert.Equal(t, int64(0), lvl.Reserved)
}

func TestCoordinator_Release_ReconstruyeDistribucionPorDueno(t *testing.T) {
	db := stocktest.NewDB()
	seedBulk(db)
	db.SeedLevel(testOrgID, "p1", "b1", 5, 0)
	db.SeedLevel(testOrgID, "p1", "b2", 5, 0)

	coord := stock.NewCoordinator()
	ownerA := entity.OwnerWorkOrderPart("wo1", "partA")
	ownerB := entity.OwnerWorkOrderPart("wo1", "partB")

	run(t, db, func(r stock.Repos) error {
		if _, err := coord.Reserve(testCtx(), r, "p1", 6, ownerA, false); err != nil {
			return err
		}
		_, err := coord.Reserve(testCtx(), r, "p1", 2, ownerB, false)
		return err
	})

	// liberar solo al dueño A no debe tocar la reserva de B
	run(t, db, func(r stock.Repos) error {
		released, err := coord.Release(testCtx(), r, "p1", ownerA)
		require.NoError(t, err)
		assert.Equal(t, int64(6), released)
		return nil
	})
	total := db.Level("p1", "b1").Reserved + db.Level("p1", "b2").Reserved
	assert.Equal(t, int64(2), total)

	// release repetido es no-op: la distribución ya quedó en cero
	run(t, db, func(r stock.Repos) error {
		released, err := coord.Release(testCtx(), r, "p1", ownerA)
		require.NoError(t, err)
		assert.Equal(t, int64(0), released)
		return nil
	})
}

func TestCoordinator_Return_Granel(t *testing.T) {
	db := stocktest.NewDB()
	seedBulk(db)
	db.SeedLevel(testOrgID, "p1", "b1", 10, 0)

	coord := stock.NewCoordinator()
	owner := entity.OwnerWorkOrderPart("wo1", "part1")

	run(t, db, func(r stock.Repos) error {
		if _, err := coord.Reserve(testCtx(), r, "p1", 4, owner, false); err != nil {
			return err
		}
		return coord.Pick(testCtx(), r, "p1", 4, "b1", owner)
	})
	require.Equal(t, int64(6), db.Level("p1", "b1").OnHand)

	// devolución de 2 retiradas en buen estado: reingresan
	run(t, db, func(r stock.Repos) error {
		return coord.Return(testCtx(), r, "p1", 2, "b1", stock.ReturnSourcePicked, false, owner)
	})
	assert.Equal(t, int64(8), db.Level("p1", "b1").OnHand)

	// devolución defectuosa: no reingresa, queda rma_out en el log
	run(t, db, func(r stock.Repos) error {
		return coord.Return(testCtx(), r, "p1", 1, "b1", stock.ReturnSourcePicked, true, owner)
	})
	assert.Equal(t, int64(8), db.Level("p1", "b1").OnHand)

	last := db.Movements()[len(db.Movements())-1]
	assert.Equal(t, entity.MoveReasonRMAOut, last.Reason)
}

func TestCoordinator_Receive_LineaDeCompra(t *testing.T) {
	db := stocktest.NewDB()
	seedBulk(db)

	coord := stock.NewCoordinator()
	prod := db.SeedProduct(testOrgID, "p2", "SKU-2", false, 0)
	line := &entity.PurchaseOrderLine{ID: "l1", PurchaseOrderID: "po1", ProductID: "p2", QtyOrdered: 10}

	run(t, db, func(r stock.Repos) error {
		return coord.Receive(testCtx(), r, line, prod, "b1", 6, nil)
	})
	assert.Equal(t, int64(6), db.Level("p2", "b1").OnHand)
	assert.Equal(t, int64(6), line.QtyReceived)

	// recibir de más supera lo ordenado
	err := runErr(db, func(r stock.Repos) error {
		return coord.Receive(testCtx(), r, line, prod, "b1", 5, nil)
	})
	derr := domain.AsDomainError(err)
	require.NotNil(t, derr)
	assert.Equal(t, domain.CodeReceiptExceedsOrder, derr.Code)
}

func TestCoordinator_Receive_SerializadoExigeSeriales(t *testing.T) {
	db := stocktest.NewDB()
	seedBulk(db)

	coord := stock.NewCoordinator()
	prod := db.SeedProduct(testOrgID, "p3", "SKU-3", true, 0)
	line := &entity.PurchaseOrderLine{ID: "l1", PurchaseOrderID: "po1", ProductID: "p3", QtyOrdered: 3}

	err := runErr(db, func(r stock.Repos) error {
		return coord.Receive(testCtx(), r, line, prod, "b1", 2, []string{"SN-1"})
	})
	derr := domain.AsDomainError(err)
	require.NotNil(t, derr)
	assert.Equal(t, domain.CodeSerialsRequired, derr.Code)

	run(t, db, func(r stock.Repos) error {
		return coord.Receive(testCtx(), r, line, prod, "b1", 2, []string{"SN-1", "SN-2"})
	})
	assert.Equal(t, int64(2), db.Level("p3", "b1").OnHand)

	run(t, db, func(r stock.Repos) error {
		items, err := r.Serials.ListByProduct(testCtx(), "p3")
		require.NoError(t, err)
		assert.Len(t, items, 2)
		for _, s := range items {
			assert.Equal(t, entity.SerialStatusAvailable, s.Status)
		}
		return nil
	})
}

func TestCoordinator_Transfer(t *testing.T) {
	db := stocktest.NewDB()
	seedBulk(db)
	db.SeedLevel(testOrgID, "p1", "b1", 5, 2)

	coord := stock.NewCoordinator()

	// mismo bin rechazado
	err := runErr(db, func(r stock.Repos) error {
		_, err := coord.Transfer(testCtx(), r, "p1", 1, "b1", "b1")
		return err
	})
	derr := domain.AsDomainError(err)
	require.NotNil(t, derr)
	assert.Equal(t, domain.CodeSameBinTransfer, derr.Code)

	// trasladar 4 dejaría on_hand=1 < reserved=2 en el origen
	err = runErr(db, func(r stock.Repos) error {
		_, err := coord.Transfer(testCtx(), r, "p1", 4, "b1", "b2")
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	run(t, db, func(r stock.Repos) error {
		id, err := coord.Transfer(testCtx(), r, "p1", 3, "b1", "b2")
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		return nil
	})
	assert.Equal(t, int64(2), db.Level("p1", "b1").OnHand)
	assert.Equal(t, int64(3), db.Level("p1", "b2").OnHand)
}

func TestCoordinator_AdjustTo(t *testing.T) {
	db := stocktest.NewDB()
	seedBulk(db)
	db.SeedLevel(testOrgID, "p1", "b1", 5, 3)
	db.SeedLevel(testOrgID, "p1", "b2", 2, 0)

	coord := stock.NewCoordinator()
	target := func(n int64) *int64 { return &n }

	// reserved objetivo mayor a on_hand objetivo: inválido
	err := runErr(db, func(r stock.Repos) error {
		return coord.AdjustTo(testCtx(), r, "p1", target(2), target(5))
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// subir on_hand total a 10: el alza va al bin de menor índice
	run(t, db, func(r stock.Repos) error {
		return coord.AdjustTo(testCtx(), r, "p1", target(10), nil)
	})
	assert.Equal(t, int64(8), db.Level("p1", "b1").OnHand)
	assert.Equal(t, int64(2), db.Level("p1", "b2").OnHand)

	// bajar reserved total a 1 y on_hand a 6
	run(t, db, func(r stock.Repos) error {
		return coord.AdjustTo(testCtx(), r, "p1", target(6), target(1))
	})
	var onHand, reserved int64
	for _, b := range []string{"b1", "b2"} {
		lvl := db.Level("p1", b)
		onHand += lvl.OnHand
		reserved += lvl.Reserved
		assert.GreaterOrEqual(t, lvl.OnHand, lvl.Reserved)
	}
	assert.Equal(t, int64(6), onHand)
	assert.Equal(t, int64(1), reserved)
}

func TestCoordinator_AdjustTo_SinNivelesRegistrados(t *testing.T) {
	db := stocktest.NewDB()
	seedBulk(db)

	coord := stock.NewCoordinator()
	n := int64(5)
	err := runErr(db, func(r stock.Repos) error {
		return coord.AdjustTo(testCtx(), r, "p1", &n, nil)
	})
	derr := domain.AsDomainError(err)
	require.NotNil(t, derr)
	assert.Equal(t, domain.CodeNoLevelsForAdjust, derr.Code)
}

func TestCoordinator_WriteOffProduct(t *testing.T) {
	db := stocktest.NewDB()
	seedBulk(db)
	db.SeedLevel(testOrgID, "p1", "b1", 5, 2)
	db.SeedLevel(testOrgID, "p1", "b2", 3, 0)

	coord := stock.NewCoordinator()
	run(t, db, func(r stock.Repos) error {
		return coord.WriteOffProduct(testCtx(), r, "p1")
	})

	assert.Equal(t, int64(0), db.Level("p1", "b1").OnHand)
	assert.Equal(t, int64(0), db.Level("p1", "b1").Reserved)
	assert.Equal(t, int64(0), db.Level("p1", "b2").OnHand)

	// un adjust por bin con existencias
	adjusts := 0
	for _, m := range db.Movements() {
		if m.Reason == entity.MoveReasonAdjust {
			adjusts++
		}
	}
	assert.Equal(t, 2, adjusts)
}

// Reservas concurrentes sobre el mismo producto nunca apartan más que el
// disponible total: las que no alcanzan stock fallan completas.
func TestCoordinator_ReservasConcurrentesNoSobrevenden(t *testing.T) {
	db := stocktest.NewDB()
	seedBulk(db)
	db.SeedLevel(testOrgID, "p1", "b1", 10, 0)

	coord := stock.NewCoordinator()
	runner := db.Runner()

	const workers = 8
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			owner := entity.OwnerWorkOrderPart("wo1", "part-"+string(rune('a'+n)))
			results[n] = runner.Run(testCtx(), func(r stock.Repos) error {
				_, err := coord.Reserve(testCtx(), r, "p1", 3, owner, false)
				return err
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 3, ok, "con 10 disponibles solo 3 reservas de 3 caben")
	assert.Equal(t, int64(9), db.Level("p1", "b1").Reserved)
	assert.LessOrEqual(t, db.Level("p1", "b1").Reserved, db.Level("p1", "b1").OnHand)
}
