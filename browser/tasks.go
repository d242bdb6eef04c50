package browser

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	s3errors "github.com/lflfm/pys3b/s3/errors"
	"github.com/lflfm/pys3b/s3/s3types"
	"github.com/lflfm/pys3b/settings"
)

// Dispatch delivers a callback to the caller's preferred goroutine.
// UI shells use it to marshal results onto their event loop; the default
// invokes the callback directly on the worker goroutine.
type Dispatch func(fn func())

// Callbacks receives the outcome of a background task. Nil fields are
// skipped. OnCancelled fires instead of OnError when the task's context was
// cancelled; OnDone always fires last.
type Callbacks[T any] struct {
	OnSuccess   func(T)
	OnError     func(error)
	OnCancelled func()
	OnDone      func()
}

// Runner executes session operations on background goroutines and owns the
// persistent application settings.
type Runner struct {
	session  *Session
	store    *settings.Store
	dispatch Dispatch
	logger   *slog.Logger

	mu      sync.Mutex
	current settings.Settings
	wg      sync.WaitGroup
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithDispatch sets the callback dispatch function.
func WithDispatch(dispatch Dispatch) RunnerOption {
	return func(r *Runner) {
		r.dispatch = dispatch
	}
}

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a runner over the session and loads settings from the store.
func NewRunner(session *Session, store *settings.Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		session:  session,
		store:    store,
		dispatch: func(fn func()) { fn() },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.current = store.Load()
	return r
}

// Session returns the underlying session.
func (r *Runner) Session() *Session {
	return r.session
}

// Wait blocks until all in-flight tasks have completed. Intended for tests
// and orderly shutdown.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Settings returns a copy of the current settings.
func (r *Runner) Settings() settings.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// UpdateSettings replaces the settings and persists them.
func (r *Runner) UpdateSettings(s settings.Settings) {
	r.mu.Lock()
	r.current = s
	r.mu.Unlock()
	r.store.Save(s)
}

// UpdateFetchLimit sets the listing fetch limit (minimum 1) and persists it.
func (r *Runner) UpdateFetchLimit(limit int) {
	if limit < 1 {
		limit = 1
	}
	r.mu.Lock()
	r.current.FetchLimit = limit
	s := r.current
	r.mu.Unlock()
	r.store.Save(s)
}

// UpdateLastConnection records the profile used to connect. It only
// persists when the user opted into remembering the last bucket.
func (r *Runner) UpdateLastConnection(name string) {
	r.mu.Lock()
	if !r.current.RememberLastBucket {
		r.mu.Unlock()
		return
	}
	r.current.LastConnection = name
	s := r.current
	r.mu.Unlock()
	r.store.Save(s)
}

// UpdateLastBucket records the bucket being browsed, honoring the
// remember-last-bucket preference.
func (r *Runner) UpdateLastBucket(bucket string) {
	r.mu.Lock()
	if !r.current.RememberLastBucket {
		r.mu.Unlock()
		return
	}
	r.current.LastBucket = bucket
	s := r.current
	r.mu.Unlock()
	r.store.Save(s)
}

// AutoConnectProfile returns the profile to reconnect on startup, or ""
// when the preference is off or nothing was remembered.
func (r *Runner) AutoConnectProfile() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.current.RememberLastBucket {
		return ""
	}
	return r.current.LastConnection
}

// ConnectProfile connects using a named profile in the background.
func (r *Runner) ConnectProfile(ctx context.Context, name string, cb Callbacks[[]s3types.Bucket]) {
	runTask(r, ctx, "connect_profile", func(ctx context.Context) ([]s3types.Bucket, error) {
		return r.session.ConnectProfile(ctx, name)
	}, cb)
}

// Connect connects with explicit parameters in the background.
func (r *Runner) Connect(
	ctx context.Context,
	endpointURL, accessKey, secretKey string,
	cb Callbacks[[]s3types.Bucket],
) {
	runTask(r, ctx, "connect", func(ctx context.Context) ([]s3types.Bucket, error) {
		return r.session.Connect(ctx, endpointURL, accessKey, secretKey)
	}, cb)
}

// RefreshBuckets re-lists buckets in the background.
func (r *Runner) RefreshBuckets(ctx context.Context, cb Callbacks[[]s3types.Bucket]) {
	runTask(r, ctx, "refresh_buckets", func(ctx context.Context) ([]s3types.Bucket, error) {
		return r.session.RefreshBuckets(ctx)
	}, cb)
}

// ListObjects builds a paged listing in the background. When the request
// leaves MaxKeys unset, the configured fetch limit applies.
func (r *Runner) ListObjects(ctx context.Context, req ListRequest, cb Callbacks[*Listing]) {
	if req.MaxKeys <= 0 {
		req.MaxKeys = r.Settings().FetchLimit
	}
	runTask(r, ctx, "list_objects", func(ctx context.Context) (*Listing, error) {
		return r.session.ListObjects(ctx, req)
	}, cb)
}

// ObjectDetails fetches object metadata in the background.
func (r *Runner) ObjectDetails(ctx context.Context, bucket, key string, cb Callbacks[*s3types.ObjectDetails]) {
	runTask(r, ctx, "object_details", func(ctx context.Context) (*s3types.ObjectDetails, error) {
		return r.session.ObjectDetails(ctx, bucket, key)
	}, cb)
}

// DeleteObject deletes an object in the background.
func (r *Runner) DeleteObject(ctx context.Context, bucket, key string, cb Callbacks[struct{}]) {
	runTask(r, ctx, "delete_object", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.session.DeleteObject(ctx, bucket, key)
	}, cb)
}

// Download downloads an object to a local file in the background.
// The settings' transfer tuning applies unless overridden by opts.
func (r *Runner) Download(
	ctx context.Context,
	bucket, key, path string,
	cb Callbacks[*s3types.DownloadResult],
	opts ...s3types.DownloadOption,
) {
	runTask(r, ctx, "download", func(ctx context.Context) (*s3types.DownloadResult, error) {
		return r.session.Download(ctx, bucket, key, path, opts...)
	}, cb)
}

// Upload uploads a local file in the background, applying the settings'
// multipart tuning unless overridden by opts.
func (r *Runner) Upload(
	ctx context.Context,
	bucket, key, path string,
	cb Callbacks[*s3types.UploadResult],
	opts ...s3types.UploadOption,
) {
	current := r.Settings()
	base := []s3types.UploadOption{
		uploadTuning(current),
	}
	base = append(base, opts...)

	runTask(r, ctx, "upload", func(ctx context.Context) (*s3types.UploadResult, error) {
		return r.session.Upload(ctx, bucket, key, path, base...)
	}, cb)
}

// Presign generates a presigned URL or POST policy in the background.
// POST policies default their size cap to the configured default when the
// caller did not set one.
func (r *Runner) Presign(
	ctx context.Context,
	method s3types.PresignMethod,
	bucket, key string,
	cb Callbacks[*s3types.PresignResult],
	opts ...s3types.PresignOption,
) {
	if method == s3types.PresignPost {
		current := r.Settings()
		opts = append([]s3types.PresignOption{
			func(c *s3types.PresignConfig) {
				if c.MaxSize <= 0 {
					c.MaxSize = current.DefaultPostMaxSize
				}
			},
		}, opts...)
	}

	runTask(r, ctx, "presign", func(ctx context.Context) (*s3types.PresignResult, error) {
		return r.session.PresignURL(ctx, method, bucket, key, opts...)
	}, cb)
}

// uploadTuning maps the persisted transfer settings onto upload options.
func uploadTuning(s settings.Settings) s3types.UploadOption {
	return func(c *s3types.UploadConfig) {
		c.MultipartThreshold = s.UploadMultipartThreshold
		c.PartSize = s.UploadChunkSize
		c.Concurrency = s.UploadMaxConcurrency
	}
}

// runTask executes work on a goroutine and delivers the outcome through the
// runner's dispatch function. Each task carries a unique id in its log records.
func runTask[T any](
	r *Runner,
	ctx context.Context,
	op string,
	work func(context.Context) (T, error),
	cb Callbacks[T],
) {
	taskID := uuid.NewString()
	logger := r.logger.With("task_id", taskID, "op", op)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		logger.Debug("task started")
		result, err := work(ctx)

		r.dispatch(func() {
			defer func() {
				if cb.OnDone != nil {
					cb.OnDone()
				}
			}()

			switch {
			case err == nil:
				logger.Debug("task completed")
				if cb.OnSuccess != nil {
					cb.OnSuccess(result)
				}
			case isCancelled(err):
				logger.Debug("task cancelled")
				if cb.OnCancelled != nil {
					cb.OnCancelled()
				} else if cb.OnError != nil {
					cb.OnError(err)
				}
			default:
				logger.Debug("task failed", "error", err)
				if cb.OnError != nil {
					cb.OnError(err)
				}
			}
		})
	}()
}

// isCancelled reports whether the error stems from context cancellation.
func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		s3errors.IsTransferCancelled(err)
}
