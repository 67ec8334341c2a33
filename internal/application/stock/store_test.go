package stock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/stock"
	"github.com/jhoicas/taller-api/internal/application/stock/stocktest"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/tenant"
)

const (
	testOrgID  = "org-1"
	testUserID = "user-1"
)

func testCtx() context.Context {
	return tenant.WithUser(tenant.WithOrganization(context.Background(), testOrgID), testUserID)
}

// run ejecuta fn dentro de la unidad de trabajo fake y exige éxito.
func run(t *testing.T, db *stocktest.DB, fn func(r stock.Repos) error) {
	t.Helper()
	require.NoError(t, db.Runner().Run(testCtx(), fn))
}

// runErr ejecuta fn y devuelve el error para asserts.
func runErr(db *stocktest.DB, fn func(r stock.Repos) error) error {
	return db.Runner().Run(testCtx(), fn)
}

func TestStore_IncOnHand(t *testing.T) {
	db := stocktest.NewDB()
	db.SeedOrganization(testOrgID, "Taller")
	db.SeedProduct(testOrgID, "p1", "SKU-1", false, 0)
	db.SeedBin(testOrgID, "b1", "A-01")
	db.SeedLevel(testOrgID, "p1", "b1", 5, 0)

	run(t, db, func(r stock.Repos) error {
		st := stock.NewStore(r)
		lvl, err := r.Levels.GetForUpdate(testCtx(), "p1", "b1")
		require.NoError(t, err)
		return st.IncOnHand(testCtx(), lvl, 3)
	})

	assert.Equal(t, int64(8), db.Level("p1", "b1").OnHand)
}

func TestStore_DecOnHand_NuncaDejaNegativoNiBajoReserved(t *testing.T) {
	db := stocktest.NewDB()
	db.SeedOrganization(testOrgID, "Taller")
	db.SeedLevel(testOrgID, "p1", "b1", 5, 3)

	// bajar 3 dejaría on_hand=2 < reserved=3
	err := runErr(db, func(r stock.Repos) error {
		st := stock.NewStore(r)
		lvl, err := r.Levels.GetForUpdate(testCtx(), "p1", "b1")
		require.NoError(t, err)
		return st.DecOnHand(testCtx(), lvl, 3)
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(5), db.Level("p1", "b1").OnHand, "el rollback debe dejar el nivel intacto")

	// bajar 2 deja on_hand=3 == reserved: permitido
	run(t, db, func(r stock.Repos) error {
		st := stock.NewStore(r)
		lvl, err := r.Levels.GetForUpdate(testCtx(), "p1", "b1")
		require.NoError(t, err)
		return st.DecOnHand(testCtx(), lvl, 2)
	})
	assert.Equal(t, int64(3), db.Level("p1", "b1").OnHand)
}

func TestStore_IncReserved_NoSuperaOnHand(t *testing.T) {
	db := stocktest.NewDB()
	db.SeedOrganization(testOrgID, "Taller")
	db.SeedLevel(testOrgID, "p1", "b1", 4, 2)

	err := runErr(db, func(r stock.Repos) error {
		st := stock.NewStore(r)
		lvl, err := r.Levels.GetForUpdate(testCtx(), "p1", "b1")
		require.NoError(t, err)
		return st.IncReserved(testCtx(), lvl, 3)
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	run(t, db, func(r stock.Repos) error {
		st := stock.NewStore(r)
		lvl, err := r.Levels.GetForUpdate(testCtx(), "p1", "b1")
		require.NoError(t, err)
		return st.IncReserved(testCtx(), lvl, 2)
	})
	assert.Equal(t, int64(4), db.Level("p1", "b1").Reserved)
}

func TestStore_DecReserved_NegativoEsInvariante(t *testing.T) {
	db := stocktest.NewDB()
	db.SeedOrganization(testOrgID, "Taller")
	db.SeedLevel(testOrgID, "p1", "b1", 4, 1)

	err := runErr(db, func(r stock.Repos) error {
		st := stock.NewStore(r)
		lvl, err := r.Levels.GetForUpdate(testCtx(), "p1", "b1")
		require.NoError(t, err)
		return st.DecReserved(testCtx(), lvl, 2)
	})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestStore_PrimitivasRechazanCantidadNoPositiva(t *testing.T) {
	db := stocktest.NewDB()
	db.SeedOrganization(testOrgID, "Taller")
	db.SeedLevel(testOrgID, "p1", "b1", 4, 1)

	err := runErr(db, func(r stock.Repos) error {
		st := stock.NewStore(r)
		lvl, err := r.Levels.GetForUpdate(testCtx(), "p1", "b1")
		require.NoError(t, err)
		return st.IncOnHand(testCtx(), lvl, 0)
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = runErr(db, func(r stock.Repos) error {
		st := stock.NewStore(r)
		lvl, err := r.Levels.GetForUpdate(testCtx(), "p1", "b1")
		require.NoError(t, err)
		return st.DecOnHand(testCtx(), lvl, -1)
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_RecordMove_ExigeAlgunBin(t *testing.T) {
	db := stocktest.NewDB()
	db.SeedOrganization(testOrgID, "Taller")

	err := runErr(db, func(r stock.Repos) error {
		st := stock.NewStore(r)
		return st.RecordMove(testCtx(), &entity.Movement{
			OrganizationID: testOrgID,
			ProductID:      "p1",
			Qty:            1,
			Reason:         entity.MoveReasonAdjust,
		})
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_Ensure_CreaFilaEnCero(t *testing.T) {
	db := stocktest.NewDB()
	db.SeedOrganization(testOrgID, "Taller")

	run(t, db, func(r stock.Repos) error {
		st := stock.NewStore(r)
		lvl, err := st.Ensure(testCtx(), "p1", "b9")
		require.NoError(t, err)
		assert.Equal(t, int64(0), lvl.OnHand)
		assert.Equal(t, int64(0), lvl.Reserved)
		return nil
	})
	require.NotNil(t, db.Level("p1", "b9"))
}
