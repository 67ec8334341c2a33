package stock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/stock"
	"github.com/jhoicas/taller-api/internal/application/stock/stocktest"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

func seedSerialized(db *stocktest.DB) {
	db.SeedOrganization(testOrgID, "Taller")
	db.SeedProduct(testOrgID, "p1", "SKU-1", true, 0)
	db.SeedBin(testOrgID, "b1", "A-01")
	db.SeedLevel(testOrgID, "p1", "b1", 2, 0)
	db.SeedSerial(testOrgID, "sn1", "p1", "SN-001", "b1")
	db.SeedSerial(testOrgID, "sn2", "p1", "SN-002", "b1")
}

func TestTracker_CicloReservePickReturn(t *testing.T) {
	db := stocktest.NewDB()
	seedSerialized(db)

	run(t, db, func(r stock.Repos) error {
		return stock.NewTracker(r).Reserve(testCtx(), "p1", "sn1", "wo1", "part1")
	})
	s := db.Serial("sn1")
	assert.Equal(t, entity.SerialStatusReserved, s.Status)
	require.NotNil(t, s.WorkOrderID)
	assert.Equal(t, "wo1", *s.WorkOrderID)
	assert.Equal(t, int64(1), db.Level("p1", "b1").Reserved)

	run(t, db, func(r stock.Repos) error {
		return stock.NewTracker(r).Pick(testCtx(), "sn1", "wo1", "part1", "b1")
	})
	s = db.Serial("sn1")
	assert.Equal(t, entity.SerialStatusAssigned, s.Status)
	assert.Nil(t, s.BinID, "el serial retirado no está en ningún bin")
	lvl := db.Level("p1", "b1")
	assert.Equal(t, int64(1), lvl.OnHand)
	assert.Equal(t, int64(0), lvl.Reserved)

	run(t, db, func(r stock.Repos) error {
		return stock.NewTracker(r).Return(testCtx(), "sn1", "wo1", "part1", "b1", stock.ReturnSourcePicked, false)
	})
	s = db.Serial("sn1")
	assert.Equal(t, entity.SerialStatusAvailable, s.Status)
	require.NotNil(t, s.BinID)
	assert.Equal(t, "b1", *s.BinID)
	assert.Nil(t, s.WorkOrderID)
	assert.Equal(t, int64(2), db.Level("p1", "b1").OnHand)
}

func TestTracker_Reserve_RechazaSerialOcupado(t *testing.T) {
	db := stocktest.NewDB()
	seedSerialized(db)

	run(t, db, func(r stock.Repos) error {
		return stock.NewTracker(r).Reserve(testCtx(), "p1", "sn1", "wo1", "part1")
	})

	// una segunda orden no puede reservar el mismo serial
	err := runErr(db, func(r stock.Repos) error {
		return stock.NewTracker(r).Reserve(testCtx(), "p1", "sn1", "wo2", "part9")
	})
	assert.ErrorIs(t, err, domain.ErrSerialUnavailable)
}

func TestTracker_Reserve_RechazaProductoDistinto(t *testing.T) {
	db := stocktest.NewDB()
	seedSerialized(db)

	err := runErr(db, func(r stock.Repos) error {
		return stock.NewTracker(r).Reserve(testCtx(), "otro-producto", "sn1", "wo1", "part1")
	})
	assert.ErrorIs(t, err, domain.ErrSerialUnavailable)
}

func TestTracker_Pick_ExigeReservaDeLaMismaOrden(t *testing.T) {
	db := stocktest.NewDB()
	seedSerialized(db)

	run(t, db, func(r stock.Repos) error {
		return stock.NewTracker(r).Reserve(testCtx(), "p1", "sn1", "wo1", "part1")
	})

	err := runErr(db, func(r stock.Repos) error {
		return stock.NewTracker(r).Pick(testCtx(), "sn1", "wo2", "part1", "b1")
	})
	assert.ErrorIs(t, err, domain.ErrSerialUnavailable)

	// bin equivocado también se rechaza
	err = runErr(db, func(r stock.Repos) error {
		return stock.NewTracker(r).Pick(testCtx(), "sn1", "wo1", "part1", "b2")
	})
	assert.ErrorIs(t, err, domain.ErrSerialUnavailable)
}

func TestTracker_Return_ReservadoDefectuosoDaDeBaja(t *testing.T) {
	db := stocktest.NewDB()
	seedSerialized(db)

	run(t, db, func(r stock.Repos) error {
		return stock.NewTracker(r).Reserve(testCtx(), "p1", "sn1", "wo1", "part1")
	})
	run(t, db, func(r stock.Repos) error {
		return stock.NewTracker(r).Return(testCtx(), "sn1", "wo1", "part1", "b1", stock.ReturnSourceReserved, true)
	})

	s := db.Serial("sn1")
	assert.Equal(t, entity.SerialStatusFaulty, s.Status)
	assert.Nil(t, s.BinID)
	lvl := db.Level("p1", "b1")
	assert.Equal(t, int64(1), lvl.OnHand, "la baja física descuenta on_hand")
	assert.Equal(t, int64(0), lvl.Reserved)
}

func TestTracker_Return_AsignadoDefectuosoNoReingresa(t *testing.T) {
	db := stocktest.NewDB()
	seedSerialized(db)

	run(t, db, func(r stock.Repos) error {
		tr := stock.NewTracker(r)
		if err := tr.Reserve(testCtx(), "p1", "sn1", "wo1", "part1"); err != nil {
			return err
		}
		return tr.Pick(testCtx(), "sn1", "wo1", "part1", "b1")
	})
	require.Equal(t, int64(1), db.Level("p1", "b1").OnHand)

	run(t, db, func(r stock.Repos) error {
		return stock.NewTracker(r).Return(testCtx(), "sn1", "wo1", "part1", "b1", stock.ReturnSourcePicked, true)
	})
	assert.Equal(t, entity.SerialStatusFaulty, db.Serial("sn1").Status)
	assert.Equal(t, int64(1), db.Level("p1", "b1").OnHand, "defectuoso no reingresa")
}

func TestTracker_MarkFaulty(t *testing.T) {
	db := stocktest.NewDB()
	seedSerialized(db)

	// available en bin: descuenta on_hand
	run(t, db, func(r stock.Repos) error {
		return stock.NewTracker(r).MarkFaulty(testCtx(), "sn1")
	})
	assert.Equal(t, entity.SerialStatusFaulty, db.Serial("sn1").Status)
	assert.Equal(t, int64(1), db.Level("p1", "b1").OnHand)

	// reservado: además libera la reserva
	run(t, db, func(r stock.Repos) error {
		return stock.NewTracker(r).Reserve(testCtx(), "p1", "sn2", "wo1", "part1")
	})
	run(t, db, func(r stock.Repos) error {
		return stock.NewTracker(r).MarkFaulty(testCtx(), "sn2")
	})
	lvl := db.Level("p1", "b1")
	assert.Equal(t, int64(0), lvl.OnHand)
	assert.Equal(t, int64(0), lvl.Reserved)

	// faulty es terminal
	err := runErr(db, func(r stock.Repos) error {
		return stock.NewTracker(r).MarkFaulty(testCtx(), "sn1")
	})
	assert.ErrorIs(t, err, domain.ErrSerialUnavailable)
}
