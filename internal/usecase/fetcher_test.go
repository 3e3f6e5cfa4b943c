package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nepsefetch/internal/domain"
)

var (
	monday = time.Date(2024, 5, 20, 11, 0, 0, 0, time.UTC) // trading day
	friday = time.Date(2024, 5, 24, 11, 0, 0, 0, time.UTC) // NEPSE closed
)

type fakeStore struct {
	listCalls int
	artifacts []domain.Artifact
	listErr   error
	fresh     bool
}

func (f *fakeStore) FindByDate(time.Time) (*domain.Artifact, bool) { return nil, false }

func (f *fakeStore) ListForDate(time.Time) ([]domain.Artifact, error) {
	f.listCalls++
	return f.artifacts, f.listErr
}

func (f *fakeStore) ModifiedOn(*domain.Artifact, time.Time) bool { return f.fresh }

type fakeRetriever struct {
	calls    int
	artifact *domain.Artifact
	err      error
}

func (f *fakeRetriever) Retrieve(context.Context, string, time.Duration) (*domain.Artifact, error) {
	f.calls++
	return f.artifact, f.err
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, message string) error {
	f.messages = append(f.messages, message)
	return f.err
}

func nepseCalendar() domain.TradingCalendar {
	return domain.NewTradingCalendar(map[time.Weekday]bool{
		time.Friday:   true,
		time.Saturday: true,
	})
}

func newService(st *fakeStore, rt *fakeRetriever, nt *fakeNotifier, today time.Time) *FetcherService {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	gate := NewScheduleGate(nepseCalendar(), st, logger)
	svc := NewFetcherService(gate, st, rt, nt, "todays_price", time.Minute, logger)
	svc.now = func() time.Time { return today }
	return svc
}

func TestRunWeekendSkipsWithoutSideEffects(t *testing.T) {
	st := &fakeStore{}
	rt := &fakeRetriever{}
	svc := newService(st, rt, &fakeNotifier{}, friday)

	outcome, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkipped, outcome)
	// The weekend check must short-circuit before the store and the
	// browser are ever touched.
	assert.Zero(t, st.listCalls)
	assert.Zero(t, rt.calls)
}

func TestRunExistingArtifactSkipsRetrieval(t *testing.T) {
	st := &fakeStore{artifacts: []domain.Artifact{
		{Path: "todays_price/Today's Price - 2024-05-20.csv", Date: monday},
	}}
	rt := &fakeRetriever{}
	svc := newService(st, rt, &fakeNotifier{}, monday)

	outcome, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkipped, outcome)
	assert.Zero(t, rt.calls)
}

func TestRunDownloadSuccess(t *testing.T) {
	st := &fakeStore{fresh: true}
	rt := &fakeRetriever{artifact: &domain.Artifact{
		Path:    "todays_price/Today's Price - 2024-05-20.csv",
		Date:    monday,
		ModTime: monday,
	}}
	nt := &fakeNotifier{}
	svc := newService(st, rt, nt, monday)

	outcome, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, outcome)
	assert.Equal(t, 1, rt.calls)
	require.Len(t, nt.messages, 1)
	assert.Contains(t, nt.messages[0], "Today's Price - 2024-05-20.csv")
}

func TestRunRetrieverMissFailsWithoutError(t *testing.T) {
	// Exhausted selectors and download timeouts surface as a nil
	// artifact, which is a reported failure but not a fault.
	st := &fakeStore{fresh: true}
	rt := &fakeRetriever{artifact: nil}
	svc := newService(st, rt, &fakeNotifier{}, monday)

	outcome, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, outcome)
}

func TestRunStaleDownloadFails(t *testing.T) {
	st := &fakeStore{fresh: false}
	rt := &fakeRetriever{artifact: &domain.Artifact{
		Path: "todays_price/Today's Price - 2024-05-20.csv",
	}}
	svc := newService(st, rt, &fakeNotifier{}, monday)

	outcome, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, outcome)
}

func TestRunSessionFaultSurfacesError(t *testing.T) {
	st := &fakeStore{}
	rt := &fakeRetriever{err: errors.New("chrome failed to start")}
	svc := newService(st, rt, &fakeNotifier{}, monday)

	outcome, err := svc.Run(context.Background())
	assert.Equal(t, domain.OutcomeFailed, outcome)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chrome failed to start")
}

func TestRunNotifierFailureIsNotFatal(t *testing.T) {
	st := &fakeStore{fresh: true}
	rt := &fakeRetriever{artifact: &domain.Artifact{
		Path: "todays_price/Today's Price - 2024-05-20.csv",
	}}
	nt := &fakeNotifier{err: errors.New("telegram down")}
	svc := newService(st, rt, nt, monday)

	outcome, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, outcome)
}

func TestRunSecondInvocationIsIdempotent(t *testing.T) {
	st := &fakeStore{fresh: true}
	rt := &fakeRetriever{artifact: &domain.Artifact{
		Path: "todays_price/Today's Price - 2024-05-20.csv",
	}}
	svc := newService(st, rt, &fakeNotifier{}, monday)

	outcome, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSuccess, outcome)

	// The first run left the artifact behind; the second must not
	// reach for the browser again.
	st.artifacts = []domain.Artifact{{Path: rt.artifact.Path, Date: monday}}
	outcome, err = svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkipped, outcome)
	assert.Equal(t, 1, rt.calls)
}

func TestNeedsDownloadStoreErrorMeansDownload(t *testing.T) {
	st := &fakeStore{listErr: errors.New("permission denied")}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	gate := NewScheduleGate(nepseCalendar(), st, logger)

	assert.True(t, gate.NeedsDownload(monday))
}
