package partners

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arbor-commerce/arbor/internal/shared"
)

type fakeRepo struct {
	nextID      int64
	byID        map[int64]*Partner
	commissions []Commission
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, byID: map[int64]*Partner{}}
}

func (f *fakeRepo) Create(_ context.Context, partner Partner) (Partner, error) {
	for _, existing := range f.byID {
		if existing.Email == partner.Email || existing.Code == partner.Code {
			return Partner{}, shared.ErrDuplicate
		}
	}
	partner.ID = f.nextID
	f.byID[f.nextID] = &partner
	f.nextID++
	return partner, nil
}

func (f *fakeRepo) List(_ context.Context, status Status, _, _ int) ([]Partner, int, error) {
	var partners []Partner
	for _, partner := range f.byID {
		if status == "" || partner.Status == status {
			partners = append(partners, *partner)
		}
	}
	return partners, len(partners), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Partner, error) {
	if partner, ok := f.byID[id]; ok {
		return *partner, nil
	}
	return Partner{}, shared.ErrNotFound
}

func (f *fakeRepo) GetByCode(_ context.Context, code string) (Partner, error) {
	for _, partner := range f.byID {
		if partner.Code == code {
			return *partner, nil
		}
	}
	return Partner{}, shared.ErrNotFound
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id int64, status Status) (Partner, error) {
	partner, ok := f.byID[id]
	if !ok {
		return Partner{}, shared.ErrNotFound
	}
	partner.Status = status
	return *partner, nil
}

func (f *fakeRepo) InsertCommission(_ context.Context, commission Commission) error {
	for _, existing := range f.commissions {
		if existing.PartnerID == commission.PartnerID && existing.OrderID == commission.OrderID {
			return shared.ErrDuplicate
		}
	}
	f.commissions = append(f.commissions, commission)
	return nil
}

func (f *fakeRepo) Earnings(_ context.Context, partnerID int64) (int, int64, error) {
	var (
		count int
		total int64
	)
	for _, commission := range f.commissions {
		if commission.PartnerID == partnerID {
			count++
			total += commission.AmountCents
		}
	}
	return count, total, nil
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func register(t *testing.T, service *Service, email string) Partner {
	t.Helper()
	partner, err := service.Register(context.Background(), RegisterRequest{Name: "Acme Media", Email: email})
	require.NoError(t, err)
	return partner
}

func TestRegisterMintsCodeAndStartsPending(t *testing.T) {
	service := newTestService(newFakeRepo())

	partner := register(t, service, " Ref@Media.Test ")
	require.Equal(t, "ref@media.test", partner.Email)
	require.Equal(t, StatusPending, partner.Status)
	require.Equal(t, defaultCommissionBps, partner.CommissionRateBps)
	require.Regexp(t, `^PTN-[A-Z2-9]{6}$`, partner.Code)
}

func TestAccrueFlatRateForApprovedPartner(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	partner := register(t, service, "a@b.c")
	_, err := service.SetStatus(context.Background(), partner.ID, StatusApproved)
	require.NoError(t, err)

	require.NoError(t, service.Accrue(context.Background(), partner.Code, 10, 104_700))
	require.Len(t, repo.commissions, 1)
	require.Equal(t, int64(5_235), repo.commissions[0].AmountCents, "5% of the order total")

	earnings, err := service.EarningsByCode(context.Background(), partner.Code)
	require.NoError(t, err)
	require.Equal(t, 1, earnings.OrderCount)
	require.Equal(t, int64(5_235), earnings.TotalCents)
}

func TestAccrueSkipsUnapprovedAndUnknown(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	partner := register(t, service, "a@b.c")
	err := service.Accrue(context.Background(), partner.Code, 10, 100_000)
	require.ErrorIs(t, err, ErrNotApproved)

	err = service.Accrue(context.Background(), "PTN-NOPE22", 10, 100_000)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, repo.commissions)
}

func TestAccrueIdempotentPerOrder(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo)

	partner := register(t, service, "a@b.c")
	_, err := service.SetStatus(context.Background(), partner.ID, StatusApproved)
	require.NoError(t, err)

	require.NoError(t, service.Accrue(context.Background(), partner.Code, 10, 100_000))
	require.NoError(t, service.Accrue(context.Background(), partner.Code, 10, 100_000))
	require.Len(t, repo.commissions, 1)
}

func TestSetStatusRejectsUnknownState(t *testing.T) {
	service := newTestService(newFakeRepo())
	partner := register(t, service, "a@b.c")

	_, err := service.SetStatus(context.Background(), partner.ID, "FROZEN")
	require.ErrorIs(t, err, ErrUnknownStatus)
}
