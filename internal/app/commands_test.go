package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_review/internal/app"
	"hotel_review/internal/domain"
	"hotel_review/internal/storage/memory"
)

type fakeEvents struct {
	mu   sync.Mutex
	got  []domain.ReviewEvent
	fail bool
}

func (f *fakeEvents) Publish(ctx context.Context, ev domain.ReviewEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker down")
	}
	f.got = append(f.got, ev)
	return nil
}

// racingRepo bumps the stored version between the service's read and write.
type racingRepo struct {
	*memory.Repo
	once sync.Once
}

func (r *racingRepo) SaveHotel(ctx context.Context, id string, v int64, p domain.HotelPatch) (domain.Hotel, error) {
	r.once.Do(func() {
		_, _ = r.Repo.SaveHotel(ctx, id, v, domain.HotelPatch{})
	})
	return r.Repo.SaveHotel(ctx, id, v, p)
}

func newService(t *testing.T) (*app.ReviewService, *memory.Repo, *fakeCache, *fakeEvents) {
	t.Helper()
	repo := memory.New()
	cache := &fakeCache{}
	ev := &fakeEvents{}
	return app.NewReviewService(repo, cache, ev), repo, cache, ev
}

func TestCreate_Draft(t *testing.T) {
	svc, repo, _, ev := newService(t)
	name := "Cliff House"
	star := 3

	h, err := svc.Create(context.Background(), merchant, domain.FieldsPatch{Name: &name, StarLevel: &star})
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)
	assert.Equal(t, domain.StatusDraft, h.Status)
	assert.Equal(t, merchant.ID, h.OwnerID)

	stored, err := repo.GetHotel(context.Background(), h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cliff House", stored.Name)
	require.Len(t, ev.got, 1)
	assert.Equal(t, "create", ev.got[0].Action)
}

func TestCreate_Rejections(t *testing.T) {
	svc, _, _, _ := newService(t)
	name := "X"
	_, err := svc.Create(context.Background(), admin, domain.FieldsPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Create(context.Background(), merchant, domain.FieldsPatch{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFullReviewCycle(t *testing.T) {
	svc, repo, cache, ev := newService(t)
	ctx := context.Background()
	h := seedHotel(t, repo, domain.StatusDraft)

	got, err := svc.SubmitPublish(ctx, merchant, h.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnderReview, got.Status)
	assert.EqualValues(t, 2, got.Version)

	got, err = svc.Approve(ctx, admin, h.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, got.Status)

	got, err = svc.Pause(ctx, merchant, h.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, got.Status)

	got, err = svc.Resume(ctx, merchant, h.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, got.Status)

	got, err = svc.SubmitOffline(ctx, merchant, h.ID)
	require.NoError(t, err)
	got, err = svc.Reject(ctx, admin, h.ID, "still has bookings")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, got.Status)
	assert.Equal(t, "still has bookings", *got.RejectReason)

	actions := make([]string, 0, len(ev.got))
	for _, e := range ev.got {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{"submit_publish", "approve", "pause", "resume", "submit_offline", "reject"}, actions)
	assert.Equal(t, "still has bookings", ev.got[5].Reason)
	assert.Equal(t, domain.StatusUnderReview, ev.got[5].From)
	assert.Len(t, cache.dels, 6)
}

func TestAuthorization(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newService(t)
	h := seedHotel(t, repo, domain.StatusPublished)

	_, err := svc.SubmitPublish(ctx, other, h.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Pause(ctx, other, h.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Pause(ctx, admin, h.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.SubmitOffline(ctx, admin, h.ID)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, merchant, h.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Reject(ctx, merchant, h.ID, "nope")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// nothing was written by the refused calls
	cur, err := repo.GetHotel(ctx, h.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, cur.Version)
}

func TestNotFound(t *testing.T) {
	svc, _, _, _ := newService(t)
	_, err := svc.SubmitPublish(context.Background(), merchant, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), admin, "missing"), domain.ErrNotFound)
}

func TestConcurrentModificationSurfacesConflict(t *testing.T) {
	repo := &racingRepo{Repo: memory.New()}
	h := seedHotel(t, repo, domain.StatusPublished)
	svc := app.NewReviewService(repo, nil, nil)

	_, err := svc.SubmitOffline(context.Background(), merchant, h.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	cur, err := repo.GetHotel(context.Background(), h.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, cur.Status)
}

func TestSubmitWhilePendingFails(t *testing.T) {
	svc, repo, _, _ := newService(t)
	h := seedHotel(t, repo, domain.StatusPublished)
	_, err := svc.SubmitOffline(context.Background(), merchant, h.ID)
	require.NoError(t, err)

	name := "Z"
	_, err = svc.SubmitUpdate(context.Background(), merchant, h.ID, domain.FieldsPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	cur, _ := repo.GetHotel(context.Background(), h.ID)
	assert.Equal(t, domain.ActionOffline, *cur.PendingAction)
}

func TestEventFailureDoesNotUndoTransition(t *testing.T) {
	repo := memory.New()
	h := seedHotel(t, repo, domain.StatusPublished)
	svc := app.NewReviewService(repo, nil, &fakeEvents{fail: true})

	got, err := svc.Pause(context.Background(), merchant, h.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, got.Status)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newService(t)
	h := seedHotel(t, repo, domain.StatusUnderReview)

	assert.ErrorIs(t, svc.Delete(ctx, other, h.ID), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, merchant, h.ID))
	_, err := repo.GetHotel(ctx, h.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
