package browser

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lflfm/pys3b/profile"
	s3errors "github.com/lflfm/pys3b/s3/errors"
	"github.com/lflfm/pys3b/s3/s3types"
	"github.com/lflfm/pys3b/settings"
)

func newTestRunner(t *testing.T, svc *fakeService, opts ...RunnerOption) *Runner {
	t.Helper()
	session, _ := newTestSession(t, []profile.Profile{{Name: "prod"}}, svc)
	store := settings.NewStore(memfs.New(), "/home/user/.s3b/settings.json")
	return NewRunner(session, store, opts...)
}

func TestRunner_ConnectProfile(t *testing.T) {
	t.Run("success callback receives buckets", func(t *testing.T) {
		buckets := []s3types.Bucket{{Name: "alpha"}}
		svc := &fakeService{
			ListBucketsFunc: func(ctx context.Context) ([]s3types.Bucket, error) {
				return buckets, nil
			},
		}
		runner := newTestRunner(t, svc)

		var got []s3types.Bucket
		var done bool
		runner.ConnectProfile(context.Background(), "prod", Callbacks[[]s3types.Bucket]{
			OnSuccess: func(b []s3types.Bucket) { got = b },
			OnError:   func(err error) { t.Errorf("unexpected error: %v", err) },
			OnDone:    func() { done = true },
		})
		runner.Wait()

		assert.Equal(t, buckets, got)
		assert.True(t, done)
		assert.True(t, runner.Session().IsConnected())
	})

	t.Run("error callback fires on failure", func(t *testing.T) {
		svc := &fakeService{
			ListBucketsFunc: func(ctx context.Context) ([]s3types.Bucket, error) {
				return nil, errors.New("invalid credentials")
			},
		}
		runner := newTestRunner(t, svc)

		var gotErr error
		runner.ConnectProfile(context.Background(), "prod", Callbacks[[]s3types.Bucket]{
			OnSuccess: func([]s3types.Bucket) { t.Error("unexpected success") },
			OnError:   func(err error) { gotErr = err },
		})
		runner.Wait()

		assert.Error(t, gotErr)
	})
}

func TestRunner_Cancellation(t *testing.T) {
	t.Run("cancelled context routes to OnCancelled", func(t *testing.T) {
		svc := &fakeService{
			DownloadFileFunc: func(ctx context.Context, bucket, key, path string, opts ...s3types.DownloadOption) (*s3types.DownloadResult, error) {
				return nil, s3errors.NewObjectError("download", bucket, key, s3errors.ErrTransferCancelled)
			},
		}
		runner := newTestRunner(t, svc)
		connectRunner(t, runner)

		var cancelled bool
		runner.Download(context.Background(), "b", "k", "/tmp/f", Callbacks[*s3types.DownloadResult]{
			OnSuccess:   func(*s3types.DownloadResult) { t.Error("unexpected success") },
			OnError:     func(err error) { t.Errorf("expected OnCancelled, got error: %v", err) },
			OnCancelled: func() { cancelled = true },
		})
		runner.Wait()

		assert.True(t, cancelled)
	})

	t.Run("falls back to OnError when OnCancelled is unset", func(t *testing.T) {
		svc := &fakeService{
			DownloadFileFunc: func(ctx context.Context, bucket, key, path string, opts ...s3types.DownloadOption) (*s3types.DownloadResult, error) {
				return nil, context.Canceled
			},
		}
		runner := newTestRunner(t, svc)
		connectRunner(t, runner)

		var gotErr error
		runner.Download(context.Background(), "b", "k", "/tmp/f", Callbacks[*s3types.DownloadResult]{
			OnError: func(err error) { gotErr = err },
		})
		runner.Wait()

		assert.ErrorIs(t, gotErr, context.Canceled)
	})
}

func TestRunner_Dispatch(t *testing.T) {
	svc := &fakeService{}
	var mu sync.Mutex
	var dispatched int

	runner := newTestRunner(t, svc, WithDispatch(func(fn func()) {
		mu.Lock()
		dispatched++
		mu.Unlock()
		fn()
	}))
	connectRunner(t, runner)

	runner.RefreshBuckets(context.Background(), Callbacks[[]s3types.Bucket]{})
	runner.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, dispatched)
}

func TestRunner_ListObjects_DefaultsToFetchLimit(t *testing.T) {
	lister := &scriptedLister{
		results: []*s3types.ListResult{{}},
	}
	svc := &fakeService{ListFunc: lister.list}
	runner := newTestRunner(t, svc)
	connectRunner(t, runner)

	runner.UpdateFetchLimit(7)

	runner.ListObjects(context.Background(), ListRequest{Bucket: "b"}, Callbacks[*Listing]{})
	runner.Wait()

	require.Len(t, lister.calls, 1)
	assert.Equal(t, int32(7), lister.calls[0].config.MaxKeys)
}

func TestRunner_Upload_AppliesTransferSettings(t *testing.T) {
	var gotConfig s3types.UploadConfig
	svc := &fakeService{
		UploadFileFunc: func(ctx context.Context, bucket, key, path string, opts ...s3types.UploadOption) (*s3types.UploadResult, error) {
			config := s3types.UploadConfig{}
			for _, opt := range opts {
				opt(&config)
			}
			gotConfig = config
			return &s3types.UploadResult{Key: key}, nil
		},
	}
	runner := newTestRunner(t, svc)
	connectRunner(t, runner)

	current := runner.Settings()
	current.UploadMultipartThreshold = 64 * 1024 * 1024
	current.UploadChunkSize = 16 * 1024 * 1024
	current.UploadMaxConcurrency = 2
	runner.UpdateSettings(current)

	runner.Upload(context.Background(), "b", "k", "/tmp/f", Callbacks[*s3types.UploadResult]{})
	runner.Wait()

	assert.Equal(t, int64(64*1024*1024), gotConfig.MultipartThreshold)
	assert.Equal(t, int64(16*1024*1024), gotConfig.PartSize)
	assert.Equal(t, 2, gotConfig.Concurrency)
}

func TestRunner_Presign_DefaultsPostMaxSize(t *testing.T) {
	var gotConfig s3types.PresignConfig
	svc := &fakeService{
		PresignFunc: func(ctx context.Context, method s3types.PresignMethod, bucket, key string, opts ...s3types.PresignOption) (*s3types.PresignResult, error) {
			config := s3types.PresignConfig{}
			for _, opt := range opts {
				opt(&config)
			}
			gotConfig = config
			return &s3types.PresignResult{}, nil
		},
	}
	runner := newTestRunner(t, svc)
	connectRunner(t, runner)

	t.Run("unset max size takes the configured default", func(t *testing.T) {
		runner.Presign(context.Background(), s3types.PresignPost, "b", "k", Callbacks[*s3types.PresignResult]{})
		runner.Wait()

		assert.Equal(t, runner.Settings().DefaultPostMaxSize, gotConfig.MaxSize)
	})

	t.Run("explicit max size wins", func(t *testing.T) {
		runner.Presign(context.Background(), s3types.PresignPost, "b", "k", Callbacks[*s3types.PresignResult]{},
			func(c *s3types.PresignConfig) { c.MaxSize = 1234 },
		)
		runner.Wait()

		assert.Equal(t, int64(1234), gotConfig.MaxSize)
	})
}

func TestRunner_Settings(t *testing.T) {
	t.Run("fetch limit clamps to one and persists", func(t *testing.T) {
		store := settings.NewStore(memfs.New(), "/home/user/.s3b/settings.json")
		session, _ := newTestSession(t, nil, &fakeService{})
		runner := NewRunner(session, store)

		runner.UpdateFetchLimit(0)
		assert.Equal(t, 1, runner.Settings().FetchLimit)
		assert.Equal(t, 1, store.Load().FetchLimit)
	})

	t.Run("last connection only recorded when remembering", func(t *testing.T) {
		runner := newTestRunner(t, &fakeService{})

		runner.UpdateLastConnection("prod")
		assert.Empty(t, runner.Settings().LastConnection)
		assert.Empty(t, runner.AutoConnectProfile())

		current := runner.Settings()
		current.RememberLastBucket = true
		runner.UpdateSettings(current)

		runner.UpdateLastConnection("prod")
		runner.UpdateLastBucket("my-bucket")

		assert.Equal(t, "prod", runner.Settings().LastConnection)
		assert.Equal(t, "my-bucket", runner.Settings().LastBucket)
		assert.Equal(t, "prod", runner.AutoConnectProfile())
	})
}

func TestRunner_DeleteObject(t *testing.T) {
	var deleted bool
	svc := &fakeService{
		DeleteFunc: func(ctx context.Context, bucket, key string) error {
			deleted = true
			return nil
		},
	}
	runner := newTestRunner(t, svc)
	connectRunner(t, runner)

	var succeeded bool
	runner.DeleteObject(context.Background(), "b", "k", Callbacks[struct{}]{
		OnSuccess: func(struct{}) { succeeded = true },
	})
	runner.Wait()

	assert.True(t, deleted)
	assert.True(t, succeeded)
}

// connectRunner connects the runner's session using the "prod" test profile.
func connectRunner(t *testing.T, runner *Runner) {
	t.Helper()
	_, err := runner.Session().ConnectProfile(context.Background(), "prod")
	require.NoError(t, err)
}
