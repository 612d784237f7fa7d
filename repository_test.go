package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, source *fakeSource) (*Repository, Storage) {
	t.Helper()
	storage, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	return NewRepository(storage, source), storage
}

func TestAddOutputCreatesStreamer(t *testing.T) {
	source := &fakeSource{ids: map[string]string{"grynn": "123"}}
	repo, _ := newTestRepository(t, source)

	s, err := repo.AddOutput(context.Background(), "Grynn", 42, "go!")
	require.NoError(t, err)

	assert.Equal(t, "grynn", s.Name, "name must be lowercased")
	assert.Equal(t, "123", s.ExternalID)
	require.Len(t, s.Outputs, 1)
	assert.Equal(t, int64(42), s.Outputs[0].ChannelID)
	assert.Equal(t, "go!", s.Outputs[0].CustomMessage)
	assert.Equal(t, []string{"123"}, repo.AllExternalIDs())
}

func TestAddOutputDuplicateChannel(t *testing.T) {
	source := &fakeSource{ids: map[string]string{"grynn": "123"}}
	repo, _ := newTestRepository(t, source)

	_, err := repo.AddOutput(context.Background(), "grynn", 42, "")
	require.NoError(t, err)

	_, err = repo.AddOutput(context.Background(), "grynn", 42, "again")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	streamers := repo.Snapshot()
	require.Len(t, streamers, 1)
	assert.Len(t, streamers[0].Outputs, 1, "duplicate add must not grow outputs")
}

func TestAddOutputSecondChannel(t *testing.T) {
	source := &fakeSource{ids: map[string]string{"grynn": "123"}}
	repo, _ := newTestRepository(t, source)

	_, err := repo.AddOutput(context.Background(), "grynn", 42, "")
	require.NoError(t, err)
	s, err := repo.AddOutput(context.Background(), "grynn", 43, "other")
	require.NoError(t, err)

	assert.Len(t, s.Outputs, 2)
	// The id was resolved once; no second lookup for a known name.
	assert.Equal(t, []string{"123"}, repo.AllExternalIDs())
}

func TestAddOutputUnknownNameLeavesRepositoryUnchanged(t *testing.T) {
	source := &fakeSource{ids: map[string]string{}}
	repo, storage := newTestRepository(t, source)

	_, err := repo.AddOutput(context.Background(), "nobody", 42, "")
	assert.ErrorIs(t, err, ErrNoSuchStreamer)
	assert.Empty(t, repo.Snapshot(), "no partial streamer may be created")

	state, err := storage.LoadState()
	require.NoError(t, err)
	assert.Empty(t, state.Streamers)
}

func TestAddOutputUpstreamError(t *testing.T) {
	source := &fakeSource{resolveErr: &UpstreamError{Status: 500}}
	repo, _ := newTestRepository(t, source)

	_, err := repo.AddOutput(context.Background(), "grynn", 42, "")
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 500, upstream.Status)
	assert.Empty(t, repo.Snapshot())
}

func TestRemoveOutput(t *testing.T) {
	source := &fakeSource{ids: map[string]string{"grynn": "123"}}
	repo, _ := newTestRepository(t, source)

	_, err := repo.AddOutput(context.Background(), "grynn", 42, "")
	require.NoError(t, err)

	assert.ErrorIs(t, repo.RemoveOutput("other", 42), ErrUnknownStreamer)
	assert.ErrorIs(t, repo.RemoveOutput("grynn", 99), ErrNotSubscribed)
	require.NoError(t, repo.RemoveOutput("GRYNN", 42))
}

func TestRemoveLastOutputKeepsStreamer(t *testing.T) {
	source := &fakeSource{ids: map[string]string{"grynn": "123"}}
	repo, _ := newTestRepository(t, source)

	_, err := repo.AddOutput(context.Background(), "grynn", 42, "")
	require.NoError(t, err)
	require.NoError(t, repo.RemoveOutput("grynn", 42))

	streamers := repo.Snapshot()
	require.Len(t, streamers, 1, "streamer stays queryable with zero outputs")
	assert.Empty(t, streamers[0].Outputs)
	assert.Equal(t, []string{"123"}, repo.AllExternalIDs())
}

func TestRecordMessagePersists(t *testing.T) {
	source := &fakeSource{ids: map[string]string{"grynn": "123"}}
	repo, storage := newTestRepository(t, source)

	_, err := repo.AddOutput(context.Background(), "grynn", 42, "")
	require.NoError(t, err)

	repo.RecordMessage("grynn", 42, 777)

	reloaded := NewRepository(storage, source)
	streamers := reloaded.Snapshot()
	require.Len(t, streamers, 1)
	assert.Equal(t, 777, streamers[0].Outputs[0].LastMessageID)
}

func TestRecordMessageUnknownOutputIsNoop(t *testing.T) {
	source := &fakeSource{ids: map[string]string{"grynn": "123"}}
	repo, _ := newTestRepository(t, source)

	_, err := repo.AddOutput(context.Background(), "grynn", 42, "")
	require.NoError(t, err)

	repo.RecordMessage("grynn", 99, 777)
	repo.RecordMessage("other", 42, 777)

	streamers := repo.Snapshot()
	assert.Zero(t, streamers[0].Outputs[0].LastMessageID)
}

func TestSnapshotIsACopy(t *testing.T) {
	source := &fakeSource{ids: map[string]string{"grynn": "123"}}
	repo, _ := newTestRepository(t, source)

	_, err := repo.AddOutput(context.Background(), "grynn", 42, "")
	require.NoError(t, err)

	snapshot := repo.Snapshot()
	snapshot[0].Outputs[0].LastMessageID = 555

	fresh := repo.Snapshot()
	assert.Zero(t, fresh[0].Outputs[0].LastMessageID, "mutating a snapshot must not touch repository state")
}

func TestReset(t *testing.T) {
	source := &fakeSource{ids: map[string]string{"grynn": "123"}}
	repo, storage := newTestRepository(t, source)

	_, err := repo.AddOutput(context.Background(), "grynn", 42, "")
	require.NoError(t, err)

	repo.Reset()
	assert.Empty(t, repo.Snapshot())
	assert.Empty(t, repo.AllExternalIDs())

	reloaded := NewRepository(storage, source)
	assert.Empty(t, reloaded.Snapshot())
}

func TestRepositoryReloadsPersistedState(t *testing.T) {
	source := &fakeSource{ids: map[string]string{"grynn": "123", "alpha": "1"}}
	repo, storage := newTestRepository(t, source)

	_, err := repo.AddOutput(context.Background(), "grynn", 42, "go!")
	require.NoError(t, err)
	_, err = repo.AddOutput(context.Background(), "alpha", 42, "")
	require.NoError(t, err)

	reloaded := NewRepository(storage, source)
	assert.ElementsMatch(t, []string{"123", "1"}, reloaded.AllExternalIDs())

	_, err = reloaded.AddOutput(context.Background(), "grynn", 42, "")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestRepositoryStartsEmptyOnLoadFailure(t *testing.T) {
	repo := NewRepository(&failingStorage{}, &fakeSource{})
	assert.Empty(t, repo.Snapshot())
}

type failingStorage struct{}

func (f *failingStorage) LoadState() (*State, error) { return nil, errors.New("disk gone") }

func (f *failingStorage) SaveState(*State) error { return errors.New("disk gone") }

func (f *failingStorage) AppendEvent(Event) error { return errors.New("disk gone") }

func (f *failingStorage) RecentEvents(int) ([]Event, error) { return nil, errors.New("disk gone") }
