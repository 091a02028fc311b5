package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobpilot/models"
)

func storeWithClock() (*PipelineStore, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	store := NewPipelineStore()
	store.now = clock.now
	return store, clock
}

func testJob(id string) models.JobPosting {
	return models.JobPosting{ID: id, Source: "linkedin", Title: "Engineer", URL: "https://example.com/" + id}
}

func TestCreateFromJob_Idempotent(t *testing.T) {
	store, clock := storeWithClock()

	first, err := store.CreateFromJob(testJob("job-1"), ApplicationOptions{Notes: "ilk not"})
	require.NoError(t, err)

	clock.sleep(time.Minute)
	second, err := store.CreateFromJob(testJob("job-1"), ApplicationOptions{ResumeVariantID: "rv-1"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.List(), 1)
	assert.Equal(t, "ilk not", second.Notes)
	assert.Equal(t, "rv-1", second.ResumeVariantID)
	assert.True(t, second.Timestamps.UpdatedAt.After(second.Timestamps.CreatedAt))
}

func TestCreateFromJob_RequiresJobID(t *testing.T) {
	store, _ := storeWithClock()

	_, err := store.CreateFromJob(models.JobPosting{}, ApplicationOptions{})
	assert.Error(t, err)
}

func TestCreateFromJob_CachesJob(t *testing.T) {
	store, _ := storeWithClock()

	app, err := store.CreateFromJob(testJob("job-1"), ApplicationOptions{})
	require.NoError(t, err)

	cached, ok := store.Job(app.JobID)
	assert.True(t, ok)
	assert.Equal(t, "job-1", cached.ID)
}

func TestUpdateStatus_SubmittedAtStampedOnce(t *testing.T) {
	store, clock := storeWithClock()
	app, err := store.CreateFromJob(testJob("job-1"), ApplicationOptions{})
	require.NoError(t, err)

	clock.sleep(time.Minute)
	updated, err := store.UpdateStatus(app.ID, "applied")
	require.NoError(t, err)
	require.NotNil(t, updated.Timestamps.SubmittedAt)
	submittedAt := *updated.Timestamps.SubmittedAt

	clock.sleep(time.Hour)
	updated, err = store.UpdateStatus(app.ID, "hr")
	require.NoError(t, err)
	assert.Equal(t, models.StatusHR, updated.Status)
	assert.Equal(t, submittedAt, *updated.Timestamps.SubmittedAt)

	// Re-entering applied later must not move the original stamp either.
	clock.sleep(time.Hour)
	updated, err = store.UpdateStatus(app.ID, "applied")
	require.NoError(t, err)
	assert.Equal(t, submittedAt, *updated.Timestamps.SubmittedAt)
}

func TestUpdateStatus_NormalizesUnknown(t *testing.T) {
	store, _ := storeWithClock()
	app, err := store.CreateFromJob(testJob("job-1"), ApplicationOptions{})
	require.NoError(t, err)

	updated, err := store.UpdateStatus(app.ID, "Interviewing")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFound, updated.Status)
	assert.Nil(t, updated.Timestamps.SubmittedAt)
}

func TestUpdateStatus_UnknownApplication(t *testing.T) {
	store, _ := storeWithClock()
	_, err := store.UpdateStatus("nope", "applied")
	assert.Error(t, err)
}

func TestList_SortedByUpdatedAtDescending(t *testing.T) {
	store, clock := storeWithClock()

	a, _ := store.CreateFromJob(testJob("job-a"), ApplicationOptions{})
	clock.sleep(time.Minute)
	b, _ := store.CreateFromJob(testJob("job-b"), ApplicationOptions{})
	clock.sleep(time.Minute)
	_, err := store.UpdateStatus(a.ID, "applied")
	require.NoError(t, err)

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewPipelineStore()
	app, err := store.CreateFromJob(testJob("job-1"), ApplicationOptions{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				switch n % 4 {
				case 0:
					_, _ = store.UpdateStatus(app.ID, "applied")
				case 1:
					store.List()
				case 2:
					store.CacheJob(testJob(fmt.Sprintf("job-%d-%d", n, j)))
				default:
					store.Summary()
				}
			}
		}(i)
	}
	wg.Wait()

	updated, ok := store.Find(app.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusApplied, updated.Status)
	require.NotNil(t, updated.Timestamps.SubmittedAt)
}

func TestStore_ReturnsCopies(t *testing.T) {
	store, _ := storeWithClock()
	app, err := store.CreateFromJob(testJob("job-1"), ApplicationOptions{})
	require.NoError(t, err)

	// Mutating a returned record must not leak into the store.
	app.Status = models.StatusOffer
	app.Notes = "dışarıdan değişti"

	stored, ok := store.Find(app.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusFound, stored.Status)
	assert.Empty(t, stored.Notes)
}

func TestRestore_SeedsWithoutOverwriting(t *testing.T) {
	store, _ := storeWithClock()
	existing, err := store.CreateFromJob(testJob("job-1"), ApplicationOptions{Notes: "canlı"})
	require.NoError(t, err)

	restored := []models.Application{
		{ID: existing.ID, JobID: "job-1", Status: models.StatusRejected, Notes: "eski"},
		{ID: "app-old", JobID: "job-9", Status: models.StatusHR},
		{ID: "", JobID: "job-x"},
	}
	store.Restore(restored)

	kept, ok := store.Find(existing.ID)
	require.True(t, ok)
	assert.Equal(t, "canlı", kept.Notes)

	old, ok := store.Find("app-old")
	require.True(t, ok)
	assert.Equal(t, models.StatusHR, old.Status)

	assert.Len(t, store.List(), 2)
}

func TestSummaryAndGroupByStatus(t *testing.T) {
	store, _ := storeWithClock()

	a, _ := store.CreateFromJob(testJob("job-a"), ApplicationOptions{})
	store.CreateFromJob(testJob("job-b"), ApplicationOptions{})
	_, err := store.UpdateStatus(a.ID, "applied")
	require.NoError(t, err)

	summary := store.Summary()
	assert.Equal(t, 1, summary[models.StatusFound])
	assert.Equal(t, 1, summary[models.StatusApplied])

	groups := store.GroupByStatus()
	assert.Len(t, groups[models.StatusApplied], 1)
	assert.Len(t, groups[models.StatusFound], 1)
}
