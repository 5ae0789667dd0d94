package accounts

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavrod/papertrade/internal/database"
	"github.com/stavrod/papertrade/internal/domain"
	"github.com/stavrod/papertrade/internal/modules/ledger"
)

func testAccounts(t *testing.T) (*Service, *ledger.Repository) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.InitLedgerSchema(db.Conn()))

	repo := NewRepository(db.Conn(), zerolog.Nop())
	ledgerRepo := ledger.NewRepository(db.Conn(), zerolog.Nop())
	return NewService(repo, ledgerRepo, zerolog.Nop()), ledgerRepo
}

func TestCreateAndGetHolder(t *testing.T) {
	svc, _ := testAccounts(t)

	created, err := svc.CreateHolder("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Name)

	got, err := svc.GetHolder(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	missing, err := svc.GetHolder("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateHolderRequiresName(t *testing.T) {
	svc, _ := testAccounts(t)

	_, err := svc.CreateHolder("")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestEnsureDemoHolderSeedsLedgerOnce(t *testing.T) {
	svc, ledgerRepo := testAccounts(t)

	holder, err := svc.EnsureDemoHolder()
	require.NoError(t, err)
	require.NotNil(t, holder)
	assert.Equal(t, DefaultHolderName, holder.Name)

	transactions, err := ledgerRepo.Query(holder.ID)
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	assert.Equal(t, domain.KindDeposit, transactions[0].Kind)
	assert.InDelta(t, 10000, transactions[0].Quantity, 1e-9)
	assert.Equal(t, domain.KindBuy, transactions[1].Kind)
	assert.Equal(t, "BTC/USDT", transactions[1].Symbol)
	assert.Equal(t, domain.KindBuy, transactions[2].Kind)
	assert.Equal(t, "ETH/USDT", transactions[2].Symbol)

	// A second boot reuses the holder and never re-seeds
	again, err := svc.EnsureDemoHolder()
	require.NoError(t, err)
	assert.Equal(t, holder.ID, again.ID)

	count, err := ledgerRepo.Count(holder.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestListHolders(t *testing.T) {
	svc, _ := testAccounts(t)

	_, err := svc.CreateHolder("alice")
	require.NoError(t, err)
	_, err = svc.CreateHolder("bob")
	require.NoError(t, err)

	holders, err := svc.ListHolders()
	require.NoError(t, err)
	assert.Len(t, holders, 2)
}
