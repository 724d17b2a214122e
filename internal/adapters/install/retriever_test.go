package install_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/igniter/internal/adapters/archive"
	"go.trai.ch/igniter/internal/adapters/fetch"
	"go.trai.ch/igniter/internal/adapters/fs"
	"go.trai.ch/igniter/internal/adapters/install"
	"go.trai.ch/igniter/internal/adapters/integrity"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/igniter/internal/core/ports/mocks"
	"go.trai.ch/igniter/internal/testutil"
	"go.uber.org/mock/gomock"
)

var extraFiles = map[string]string{
	"quadpype/lib/a.py": "a = 1\n",
	"quadpype/lib/b.py": "b = 2\n",
	"quadpype/lib/c.py": "c = 3\n",
	"LICENSE":           "MIT\n",
}

type recordSink struct {
	mu     sync.Mutex
	events []domain.Event
	onEmit func(domain.Event)
}

func (s *recordSink) Emit(ev domain.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	if s.onEmit != nil {
		s.onEmit(ev)
	}
}

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	lg := mocks.NewMockLogger(gomock.NewController(t))
	lg.EXPECT().Warn(gomock.Any()).AnyTimes()
	lg.EXPECT().Info(gomock.Any()).AnyTimes()
	return lg
}

func newRetriever(t *testing.T, fetcher ports.Fetcher) *install.Retriever {
	t.Helper()
	walker := fs.NewWalker()
	return install.NewRetriever(
		archive.NewZipper(walker),
		integrity.NewVerifier(walker, fs.NewHasher()),
		fetcher,
		quietLogger(t),
		install.WithLockWait(200*time.Millisecond),
	)
}

func assertNoLeftovers(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), domain.TempSuffix)
		assert.NotContains(t, e.Name(), ".download-")
		assert.NotContains(t, e.Name(), domain.LockFileExt)
	}
}

func TestRetrieve_RemoteDirectory(t *testing.T) {
	t.Parallel()

	remote := filepath.Join(t.TempDir(), "1.2.3")
	testutil.VersionTree(t, remote, "quadpype", "1.2.3", extraFiles)
	local := t.TempDir()

	v := domain.MustParseVersion("1.2.3").WithLocation(remote)
	got, err := newRetriever(t, nil).Retrieve(context.Background(), ports.RetrieveRequest{
		Version:  v,
		LocalDir: local,
	})
	require.NoError(t, err)

	want := filepath.Join(local, "1.2", "1.2.3")
	assert.Equal(t, want, got.Location)
	assert.FileExists(t, filepath.Join(want, "quadpype", "lib", "a.py"))
	assertNoLeftovers(t, filepath.Join(local, "1.2"))
	assertNoLeftovers(t, local)
}

func TestRetrieve_RemoteArchiveIsCachedAndUnpacked(t *testing.T) {
	t.Parallel()

	zip := filepath.Join(t.TempDir(), "quadpype-v1.2.3.zip")
	testutil.VersionZip(t, zip, "quadpype", "1.2.3", extraFiles)
	local := t.TempDir()

	got, err := newRetriever(t, nil).Retrieve(context.Background(), ports.RetrieveRequest{
		Version:  domain.MustParseVersion("1.2.3").WithLocation(zip),
		LocalDir: local,
	})
	require.NoError(t, err)

	assert.DirExists(t, got.Location)
	assert.FileExists(t, filepath.Join(local, "1.2", "1.2.3.zip"))
	assertNoLeftovers(t, filepath.Join(local, "1.2"))
}

func TestRetrieve_LocalArchiveUnpackedInPlace(t *testing.T) {
	t.Parallel()

	local := t.TempDir()
	zip := filepath.Join(local, "1.2", "1.2.3.zip")
	testutil.VersionZip(t, zip, "quadpype", "1.2.3", nil)

	got, err := newRetriever(t, nil).Retrieve(context.Background(), ports.RetrieveRequest{
		Version:  domain.MustParseVersion("1.2.3").WithLocation(zip),
		LocalDir: local,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(local, "1.2", "1.2.3"), got.Location)
	assert.FileExists(t, zip)
}

func TestRetrieve_ExistingDestinationIsReturned(t *testing.T) {
	t.Parallel()

	local := t.TempDir()
	dest := filepath.Join(local, "1.2", "1.2.3")
	require.NoError(t, os.MkdirAll(dest, 0o750))

	ctrl := gomock.NewController(t)
	r := install.NewRetriever(mocks.NewMockArchiver(ctrl), mocks.NewMockVerifier(ctrl), mocks.NewMockFetcher(ctrl), quietLogger(t))

	got, err := r.Retrieve(context.Background(), ports.RetrieveRequest{
		Version:  domain.MustParseVersion("1.2.3").WithLocation("https://mirror.example/1.2.3.zip"),
		LocalDir: local,
	})
	require.NoError(t, err)
	assert.Equal(t, dest, got.Location)
}

func TestRetrieve_Download(t *testing.T) {
	t.Parallel()

	zip := filepath.Join(t.TempDir(), "src.zip")
	testutil.VersionZip(t, zip, "quadpype", "1.2.3", extraFiles)
	payload, err := os.ReadFile(zip)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	local := t.TempDir()
	sink := &recordSink{}
	fetcher := fetch.NewFetcher(fetch.WithHTTPClient(srv.Client()))

	got, err := newRetriever(t, fetcher).Retrieve(context.Background(), ports.RetrieveRequest{
		Version:  domain.MustParseVersion("1.2.3").WithLocation(srv.URL + "/quadpype-v1.2.3.zip"),
		LocalDir: local,
		Sink:     sink,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(local, "1.2", "1.2.3"), got.Location)
	assert.FileExists(t, filepath.Join(local, "1.2", "1.2.3.zip"), "the download is kept as the archived copy")
	assertNoLeftovers(t, filepath.Join(local, "1.2"))

	var downloaded int64
	for _, ev := range sink.events {
		assert.Equal(t, domain.EventProgress, ev.Kind)
		assert.Equal(t, "quadpype", ev.Package)
		if ev.Message == "downloading" {
			downloaded = ev.Done
			assert.Equal(t, int64(len(payload)), ev.Total)
		}
	}
	assert.Equal(t, int64(len(payload)), downloaded)
}

func TestRetrieve_DownloadIntegrityFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.VersionTree(t, dir, "quadpype", "1.2.3", extraFiles)
	testutil.WriteFile(t, dir, "quadpype/lib/a.py", "tampered\n")
	zip := filepath.Join(t.TempDir(), "src.zip")
	testutil.ZipDir(t, dir, zip)
	payload, err := os.ReadFile(zip)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	local := t.TempDir()
	_, err = newRetriever(t, fetch.NewFetcher(fetch.WithHTTPClient(srv.Client()))).Retrieve(context.Background(), ports.RetrieveRequest{
		Version:  domain.MustParseVersion("1.2.3").WithLocation(srv.URL + "/1.2.3.zip"),
		LocalDir: local,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrieveIO)
	assert.ErrorIs(t, err, domain.ErrIntegrity)

	assert.NoDirExists(t, filepath.Join(local, "1.2", "1.2.3"))
	assert.NoFileExists(t, filepath.Join(local, "1.2", "1.2.3.zip"))
	assertNoLeftovers(t, filepath.Join(local, "1.2"))
}

func TestRetrieve_FetchFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), "https://mirror.example/1.2.3.zip").
		Return(nil, errors.Join(domain.ErrUpstreamDown, errors.New("503")))

	local := t.TempDir()
	_, err := newRetriever(t, fetcher).Retrieve(context.Background(), ports.RetrieveRequest{
		Version:  domain.MustParseVersion("1.2.3").WithLocation("https://mirror.example/1.2.3.zip"),
		LocalDir: local,
	})
	require.ErrorIs(t, err, domain.ErrRetrieveIO)
	assert.NotErrorIs(t, err, domain.ErrIntegrity)
	assertNoLeftovers(t, filepath.Join(local, "1.2"))
}

func TestRetrieve_LocalIntegrityFailure(t *testing.T) {
	t.Parallel()

	remote := filepath.Join(t.TempDir(), "1.2.3")
	testutil.VersionTree(t, remote, "quadpype", "1.2.3", extraFiles)
	testutil.WriteFile(t, remote, "quadpype/lib/unlisted.py", "x")
	local := t.TempDir()

	_, err := newRetriever(t, nil).Retrieve(context.Background(), ports.RetrieveRequest{
		Version:  domain.MustParseVersion("1.2.3").WithLocation(remote),
		LocalDir: local,
	})
	require.ErrorIs(t, err, domain.ErrIntegrity)
	assert.NotErrorIs(t, err, domain.ErrRetrieveIO)
	assert.NoDirExists(t, filepath.Join(local, "1.2", "1.2.3"))
	assertNoLeftovers(t, filepath.Join(local, "1.2"))
}

func TestRetrieve_SkipValidation(t *testing.T) {
	t.Parallel()

	remote := filepath.Join(t.TempDir(), "1.2.3")
	testutil.VersionTree(t, remote, "quadpype", "1.2.3", nil)
	require.NoError(t, os.Remove(filepath.Join(remote, "checksums")))

	got, err := newRetriever(t, nil).Retrieve(context.Background(), ports.RetrieveRequest{
		Version:        domain.MustParseVersion("1.2.3").WithLocation(remote),
		LocalDir:       t.TempDir(),
		SkipValidation: true,
	})
	require.NoError(t, err)
	assert.DirExists(t, got.Location)
}

func TestRetrieve_VersionFileMismatch(t *testing.T) {
	t.Parallel()

	remote := filepath.Join(t.TempDir(), "1.2.3")
	testutil.VersionTree(t, remote, "quadpype", "1.2.4", nil)

	_, err := newRetriever(t, nil).Retrieve(context.Background(), ports.RetrieveRequest{
		Version:  domain.MustParseVersion("1.2.3").WithLocation(remote),
		LocalDir: t.TempDir(),
	})
	require.ErrorIs(t, err, domain.ErrIntegrity)
	assert.ErrorIs(t, err, domain.ErrVersionFileMismatch)
}

func TestRetrieve_CancelledUnpackLeavesNothing(t *testing.T) {
	t.Parallel()

	local := t.TempDir()
	zip := filepath.Join(local, "1.2", "1.2.3.zip")
	testutil.VersionZip(t, zip, "quadpype", "1.2.3", extraFiles)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &recordSink{onEmit: func(ev domain.Event) {
		if ev.Done >= 2 {
			cancel()
		}
	}}

	_, err := newRetriever(t, nil).Retrieve(ctx, ports.RetrieveRequest{
		Version:  domain.MustParseVersion("1.2.3").WithLocation(zip),
		LocalDir: local,
		Sink:     sink,
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, domain.ErrRetrieveIO)
	assert.NoDirExists(t, filepath.Join(local, "1.2", "1.2.3"), "an interrupted unpack never publishes the destination")
	assertNoLeftovers(t, filepath.Join(local, "1.2"))
}

func TestRetrieve_PrunesLeftovers(t *testing.T) {
	t.Parallel()

	local := t.TempDir()
	stale := filepath.Join(local, "1.2", "1.2.3"+domain.TempSuffix+"999")
	testutil.WriteFile(t, stale, "quadpype/half.py", "x")
	testutil.WriteFile(t, filepath.Join(local, "1.2"), ".1.2.3.download-123", "partial")
	other := filepath.Join(local, "1.2", "1.2.4"+domain.TempSuffix+"1")
	require.NoError(t, os.MkdirAll(other, 0o750))

	remote := filepath.Join(t.TempDir(), "1.2.3")
	testutil.VersionTree(t, remote, "quadpype", "1.2.3", nil)

	_, err := newRetriever(t, nil).Retrieve(context.Background(), ports.RetrieveRequest{
		Version:  domain.MustParseVersion("1.2.3").WithLocation(remote),
		LocalDir: local,
	})
	require.NoError(t, err)
	assert.NoDirExists(t, stale)
	assert.NoFileExists(t, filepath.Join(local, "1.2", ".1.2.3.download-123"))
	assert.DirExists(t, other, "leftovers of other versions are not touched")
}

func TestRetrieve_LockHeld(t *testing.T) {
	t.Parallel()

	local := t.TempDir()
	v := domain.MustParseVersion("1.2.3").WithLocation(filepath.Join(t.TempDir(), "1.2.3"))
	lockPath := install.LockPath(local, v, filepath.Join(local, "1.2", "1.2.3"))
	testutil.WriteFile(t, filepath.Dir(lockPath), filepath.Base(lockPath), "4242\n")

	_, err := newRetriever(t, nil).Retrieve(context.Background(), ports.RetrieveRequest{
		Version:  v,
		LocalDir: local,
	})
	require.ErrorIs(t, err, domain.ErrRetrieveIO)
	assert.ErrorContains(t, err, domain.ErrLockTimeout.Error())
}

func TestAcquireLock_BreaksStaleLock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".1.2.3.lock")
	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o600))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	lock, err := install.AcquireLock(context.Background(), path, 10*time.Minute, time.Second)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
	assert.NoFileExists(t, path)
}

func TestAcquireLock_StaleLockSingleWinner(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".1.2.3.lock")
	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o600))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	const waiters = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders []*install.Lock
	)
	start := make(chan struct{})
	for range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			lock, err := install.AcquireLock(context.Background(), path, 10*time.Minute, 300*time.Millisecond)
			if err != nil {
				return
			}
			mu.Lock()
			holders = append(holders, lock)
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, holders, 1)
	require.NoError(t, holders[0].Release())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".stale-")
		assert.NotContains(t, e.Name(), ".break")
	}
}

func TestAcquireLock_Cancelled(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".1.2.3.lock")
	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := install.AcquireLock(ctx, path, 10*time.Minute, 0)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLockPath(t *testing.T) {
	t.Parallel()

	v := domain.MustParseVersion("1.2.3")
	a := install.LockPath("/cache", v, "/cache/1.2/1.2.3")
	b := install.LockPath("/cache", v, "/cache/1.2/../1.2/1.2.3")

	assert.Equal(t, a, b, "destinations are compared after cleaning")
	assert.True(t, strings.HasPrefix(filepath.Base(a), ".1.2.3."))
	assert.True(t, strings.HasSuffix(a, domain.LockFileExt))
}

func TestRetrieve_CorruptedArchiveCopyIsDropped(t *testing.T) {
	t.Parallel()

	scratch := t.TempDir()
	testutil.VersionTree(t, scratch, "quadpype", "1.2.5", extraFiles)
	testutil.WriteFile(t, scratch, "quadpype/lib/b.py", "tampered\n")
	zipPath := filepath.Join(t.TempDir(), "1.2.5.zip")
	testutil.ZipDir(t, scratch, zipPath)
	local := t.TempDir()

	_, err := newRetriever(t, nil).Retrieve(context.Background(), ports.RetrieveRequest{
		Version:  domain.MustParseVersion("1.2.5").WithLocation(zipPath),
		LocalDir: local,
	})
	require.ErrorIs(t, err, domain.ErrIntegrity)
	assert.NoDirExists(t, filepath.Join(local, "1.2", "1.2.5"))
	assert.NoFileExists(t, filepath.Join(local, "1.2", "1.2.5.zip"))
	assertNoLeftovers(t, filepath.Join(local, "1.2"))
}
