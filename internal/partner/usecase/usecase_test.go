package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-capital-service/internal/account"
	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/ledger"
	ledgerdto "github.com/fekuna/omnipos-capital-service/internal/ledger/dto"
	ledgerrepo "github.com/fekuna/omnipos-capital-service/internal/ledger/repository"
	ledgeruc "github.com/fekuna/omnipos-capital-service/internal/ledger/usecase"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/partner"
	"github.com/fekuna/omnipos-capital-service/internal/partner/dto"
	"github.com/fekuna/omnipos-capital-service/internal/partner/repository"
	"github.com/fekuna/omnipos-capital-service/internal/testutil"
	"github.com/fekuna/omnipos-capital-service/pkg/database"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvisioner struct {
	err     error
	issued  []string
	revoked []string
}

func (f *fakeProvisioner) Provision(ctx context.Context, req account.Request) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	id := "user-" + req.Email
	f.issued = append(f.issued, id)
	return id, nil
}

func (f *fakeProvisioner) Revoke(ctx context.Context, userID string) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

// brokenLink fails after the account exists, so the admission must undo it.
type brokenLink struct {
	partner.Repository
}

func (brokenLink) SetUserID(ctx context.Context, partnerID, userID string) error {
	return errors.New("connection reset")
}

type setup struct {
	db     *sqlx.DB
	ledger ledger.UseCase
	uc     partner.UseCase
	prov   *fakeProvisioner
}

func newSetup(t *testing.T, recomputeAll bool, wrap func(partner.Repository) partner.Repository) *setup {
	t.Helper()
	db := testutil.NewDB(t)
	lrepo := ledgerrepo.NewPGRepository(db)
	luc := ledgeruc.NewLedgerUseCase(lrepo, database.NewTxManager(db), ledgeruc.Options{Policy: ledger.DefaultPolicy}, logger.NewNop())

	var repo partner.Repository = repository.NewPGRepository(db)
	if wrap != nil {
		repo = wrap(repo)
	}
	prov := &fakeProvisioner{}
	uc := NewPartnerUseCase(repo, lrepo, luc, prov, Options{RecomputeAll: recomputeAll, MaxAmount: ledger.DefaultPolicy.MaxAmount}, logger.NewNop())
	return &setup{db: db, ledger: luc, uc: uc, prov: prov}
}

func admit(vendorID, name, amount string) *dto.AdmitPartnerInput {
	return &dto.AdmitPartnerInput{
		VendorID:    vendorID,
		PartnerName: name,
		Amount:      decimal.RequireFromString(amount),
	}
}

func TestAdmitPartner_OneThird(t *testing.T) {
	s := newSetup(t, true, nil)
	vendorID := testutil.SeedVendor(t, s.db, "10000")
	ctx := testutil.AdminContext()

	in := admit(vendorID, "Budi", "5000")
	requested := decimal.NewFromInt(40)
	in.RequestedPercent = &requested
	in.Email = "budi@example.com"

	res, err := s.uc.AdmitPartner(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "33.3333", res.Partner.CapitalPercent.String())
	assert.Equal(t, model.PartnerInvestor, res.Partner.PartnerType)
	assert.True(t, res.Partner.RequestedPercent.Valid)
	assert.Equal(t, "40", res.Partner.RequestedPercent.Decimal.String())
	require.NotNil(t, res.UserID)
	assert.Equal(t, "user-budi@example.com", *res.UserID)

	require.NotNil(t, res.Transaction.PartnerID)
	assert.Equal(t, res.Partner.ID, *res.Transaction.PartnerID)
	assert.Equal(t, model.TransactionDeposit, res.Transaction.Type)
	assert.True(t, res.Transaction.BalanceAfter.Equal(decimal.NewFromInt(15000)))

	bal, err := s.ledger.GetBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, bal.CapitalBalance.Equal(decimal.NewFromInt(15000)))

	stored, err := s.uc.GetPartner(ctx, res.Partner.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.UserID)
	assert.Equal(t, "33.3333", stored.CapitalPercent.String())
}

func TestAdmitPartner_RecomputesExistingShares(t *testing.T) {
	s := newSetup(t, true, nil)
	vendorID := testutil.SeedVendor(t, s.db, "0")
	ctx := testutil.AdminContext()

	first, err := s.uc.AdmitPartner(ctx, admit(vendorID, "Ani", "6000"))
	require.NoError(t, err)
	assert.Equal(t, "100", first.Partner.CapitalPercent.String())

	_, err = s.uc.AdmitPartner(ctx, admit(vendorID, "Budi", "3000"))
	require.NoError(t, err)
	_, err = s.uc.AdmitPartner(ctx, admit(vendorID, "Citra", "1000"))
	require.NoError(t, err)

	partners, err := s.uc.ListPartners(ctx, vendorID)
	require.NoError(t, err)
	require.Len(t, partners, 3)

	shares := map[string]string{}
	for _, p := range partners {
		shares[p.PartnerName] = p.CapitalPercent.String()
	}
	assert.Equal(t, map[string]string{"Ani": "60", "Budi": "30", "Citra": "10"}, shares)
	assert.True(t, partner.TotalPercent(partners).LessThanOrEqual(decimal.NewFromInt(100)))
}

func TestAdmitPartner_SnapshotSharesWhenRecomputeDisabled(t *testing.T) {
	s := newSetup(t, false, nil)
	vendorID := testutil.SeedVendor(t, s.db, "0")
	ctx := testutil.AdminContext()

	_, err := s.uc.AdmitPartner(ctx, admit(vendorID, "Ani", "6000"))
	require.NoError(t, err)
	_, err = s.uc.AdmitPartner(ctx, admit(vendorID, "Budi", "6000"))
	require.NoError(t, err)

	partners, err := s.uc.ListPartners(ctx, vendorID)
	require.NoError(t, err)
	require.Len(t, partners, 2)
	for _, p := range partners {
		if p.PartnerName == "Ani" {
			assert.Equal(t, "100", p.CapitalPercent.String())
		} else {
			assert.Equal(t, "50", p.CapitalPercent.String())
		}
	}

	// an explicit recompute brings them back to current shares
	summary, err := s.uc.RecomputeEquity(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, "12000", summary.Pool.String())
	assert.Equal(t, "100", summary.TotalPercent.String())
}

func TestAdmitPartner_SharesFollowMovedBalance(t *testing.T) {
	s := newSetup(t, true, nil)
	vendorID := testutil.SeedVendor(t, s.db, "10000")
	ctx := testutil.AdminContext()

	_, err := s.ledger.PostTransaction(ctx, &ledgerdto.PostTransactionInput{
		VendorID: vendorID, Type: model.TransactionWithdrawal, Amount: decimal.NewFromInt(2000),
	})
	require.NoError(t, err)

	res, err := s.uc.AdmitPartner(ctx, admit(vendorID, "Budi", "2000"))
	require.NoError(t, err)
	assert.True(t, res.Transaction.BalanceAfter.Equal(decimal.NewFromInt(10000)))
	// 2000 of a 10000 balance, not of the 12000 ever contributed
	assert.Equal(t, "20", res.Partner.CapitalPercent.String())

	stored, err := s.uc.GetPartner(ctx, res.Partner.ID)
	require.NoError(t, err)
	assert.Equal(t, "20", stored.CapitalPercent.String())

	summary, err := s.uc.RecomputeEquity(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, "10000", summary.Pool.String())
	assert.Equal(t, "20", summary.TotalPercent.String())
}

func TestAdmitPartner_AccountConflictRollsBack(t *testing.T) {
	s := newSetup(t, true, nil)
	s.prov.err = apperr.Wrapf(apperr.ErrDuplicateAccount, "email taken")
	vendorID := testutil.SeedVendor(t, s.db, "10000")
	ctx := testutil.AdminContext()

	in := admit(vendorID, "Budi", "5000")
	in.Email = "taken@example.com"
	_, err := s.uc.AdmitPartner(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrDuplicateAccount)

	assertUntouched(t, s, vendorID, "10000")
}

func TestAdmitPartner_FailureAfterProvisioningRevokesAccount(t *testing.T) {
	s := newSetup(t, true, func(r partner.Repository) partner.Repository { return brokenLink{r} })
	vendorID := testutil.SeedVendor(t, s.db, "10000")

	in := admit(vendorID, "Budi", "5000")
	in.Email = "budi@example.com"
	_, err := s.uc.AdmitPartner(testutil.AdminContext(), in)
	require.Error(t, err)

	assert.Equal(t, s.prov.issued, s.prov.revoked)
	assertUntouched(t, s, vendorID, "10000")
}

func TestAdmitPartner_Rejections(t *testing.T) {
	s := newSetup(t, true, nil)
	vendorID := testutil.SeedVendor(t, s.db, "10000")
	ctx := testutil.AdminContext()

	_, err := s.uc.AdmitPartner(ctx, admit(vendorID, "Budi", "0"))
	assert.ErrorIs(t, err, apperr.ErrInvalidAmount)
	_, err = s.uc.AdmitPartner(ctx, admit(vendorID, "Budi", "0.00001"))
	assert.ErrorIs(t, err, apperr.ErrInvalidAmount)

	_, err = s.uc.AdmitPartner(ctx, admit(vendorID, "", "10"))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = s.uc.AdmitPartner(ctx, admit("missing", "Budi", "10"))
	assert.ErrorIs(t, err, apperr.ErrVendorNotFound)

	_, err = s.uc.AdmitPartner(testutil.VendorContext(vendorID), admit(vendorID, "Budi", "10"))
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = s.uc.AdmitPartner(ctx, admit(vendorID, "Budi", "10"))
	require.NoError(t, err)
	_, err = s.uc.AdmitPartner(ctx, admit(vendorID, "Budi", "10"))
	assert.ErrorIs(t, err, apperr.ErrDuplicatePartner)

	_, err = s.uc.GetPartner(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrPartnerNotFound)
}

func assertUntouched(t *testing.T, s *setup, vendorID, balance string) {
	t.Helper()
	ctx := testutil.AdminContext()

	bal, err := s.ledger.GetBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, bal.CapitalBalance.Equal(decimal.RequireFromString(balance)), bal.CapitalBalance.String())

	partners, err := s.uc.ListPartners(ctx, vendorID)
	require.NoError(t, err)
	assert.Empty(t, partners)

	items, _, err := s.ledger.ListTransactions(ctx, &ledgerdto.TransactionFilters{VendorID: vendorID})
	require.NoError(t, err)
	assert.Empty(t, items)
}
