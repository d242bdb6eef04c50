package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lflfm/pys3b/profile"
	"github.com/lflfm/pys3b/s3/s3types"
)

// listCall records the effective configuration of one List invocation.
type listCall struct {
	bucket string
	prefix string
	config s3types.ListConfig
}

// scriptedLister answers List calls from a fixed sequence of results.
type scriptedLister struct {
	calls   []listCall
	results []*s3types.ListResult
	errs    []error
}

func (s *scriptedLister) list(
	ctx context.Context,
	bucket, prefix string,
	opts ...s3types.ListOption,
) (*s3types.ListResult, error) {
	config := s3types.ListConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	s.calls = append(s.calls, listCall{bucket: bucket, prefix: prefix, config: config})

	i := len(s.calls) - 1
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.results) {
		return s.results[i], nil
	}
	return &s3types.ListResult{}, nil
}

func objects(keys ...string) []s3types.Object {
	objs := make([]s3types.Object, len(keys))
	for i, key := range keys {
		objs[i] = s3types.Object{Key: key}
	}
	return objs
}

func connectedListingSession(t *testing.T, lister *scriptedLister) *Session {
	t.Helper()
	svc := &fakeService{ListFunc: lister.list}
	session, _ := newTestSession(t, []profile.Profile{{Name: "prod"}}, svc)
	_, err := session.ConnectProfile(context.Background(), "prod")
	require.NoError(t, err)
	return session
}

func TestSession_ListObjects(t *testing.T) {
	t.Run("single page within budget", func(t *testing.T) {
		lister := &scriptedLister{
			results: []*s3types.ListResult{
				{Objects: objects("a.txt", "b.txt"), CommonPrefixes: []string{"dir/"}},
			},
		}
		session := connectedListingSession(t, lister)

		listing, err := session.ListObjects(context.Background(), ListRequest{
			Bucket:    "test-bucket",
			MaxKeys:   10,
			Delimiter: "/",
		})
		require.NoError(t, err)

		require.Len(t, listing.Pages, 1)
		assert.Equal(t, 1, listing.Pages[0].Number)
		assert.Equal(t, []string{"a.txt", "b.txt"}, listing.Keys())
		assert.Equal(t, []string{"dir/"}, listing.Prefixes())
		assert.False(t, listing.HasMore)
		assert.NoError(t, listing.Err)

		require.Len(t, lister.calls, 1)
		assert.Equal(t, "test-bucket", lister.calls[0].bucket)
		assert.Equal(t, int32(10), lister.calls[0].config.MaxKeys)
		assert.Equal(t, "/", lister.calls[0].config.Delimiter)
	})

	t.Run("pages are capped at 50 keys per request", func(t *testing.T) {
		lister := &scriptedLister{
			results: []*s3types.ListResult{
				{Objects: objects("a.txt"), IsTruncated: true, NextContinuationToken: "t1"},
				{Objects: objects("b.txt")},
			},
		}
		session := connectedListingSession(t, lister)

		_, err := session.ListObjects(context.Background(), ListRequest{
			Bucket:  "test-bucket",
			MaxKeys: 200,
		})
		require.NoError(t, err)

		require.Len(t, lister.calls, 2)
		assert.Equal(t, int32(50), lister.calls[0].config.MaxKeys)
		assert.Equal(t, "", lister.calls[0].config.ContinuationToken)
		assert.Equal(t, int32(50), lister.calls[1].config.MaxKeys)
		assert.Equal(t, "t1", lister.calls[1].config.ContinuationToken)
	})

	t.Run("budget counts keys and prefixes together", func(t *testing.T) {
		lister := &scriptedLister{
			results: []*s3types.ListResult{
				{
					Objects:               objects("a.txt", "b.txt"),
					CommonPrefixes:        []string{"p1/", "p2/"},
					IsTruncated:           true,
					NextContinuationToken: "t1",
				},
			},
		}
		session := connectedListingSession(t, lister)

		listing, err := session.ListObjects(context.Background(), ListRequest{
			Bucket:  "test-bucket",
			MaxKeys: 4,
		})
		require.NoError(t, err)

		// Budget of 4 is exactly spent by 2 keys + 2 prefixes.
		require.Len(t, lister.calls, 1)
		assert.Equal(t, int32(4), lister.calls[0].config.MaxKeys)
		assert.True(t, listing.HasMore)
		assert.Equal(t, "t1", listing.ContinuationToken)
	})

	t.Run("empty truncated page continues with the next token", func(t *testing.T) {
		// A delimiter can swallow an entire page of keys.
		lister := &scriptedLister{
			results: []*s3types.ListResult{
				{IsTruncated: true, NextContinuationToken: "t1"},
				{Objects: objects("a.txt")},
			},
		}
		session := connectedListingSession(t, lister)

		listing, err := session.ListObjects(context.Background(), ListRequest{
			Bucket:  "test-bucket",
			MaxKeys: 10,
		})
		require.NoError(t, err)

		require.Len(t, lister.calls, 2)
		assert.Equal(t, "t1", lister.calls[1].config.ContinuationToken)
		assert.Equal(t, []string{"a.txt"}, listing.Keys())
	})

	t.Run("empty final page terminates", func(t *testing.T) {
		lister := &scriptedLister{
			results: []*s3types.ListResult{{}},
		}
		session := connectedListingSession(t, lister)

		listing, err := session.ListObjects(context.Background(), ListRequest{
			Bucket:  "test-bucket",
			MaxKeys: 10,
		})
		require.NoError(t, err)

		require.Len(t, lister.calls, 1)
		assert.Empty(t, listing.Keys())
		assert.False(t, listing.HasMore)
	})

	t.Run("failed page is recorded and stops the listing", func(t *testing.T) {
		listErr := errors.New("access denied")
		lister := &scriptedLister{
			results: []*s3types.ListResult{
				{Objects: objects("a.txt"), IsTruncated: true, NextContinuationToken: "t1"},
				nil,
			},
			errs: []error{nil, listErr},
		}
		session := connectedListingSession(t, lister)

		listing, err := session.ListObjects(context.Background(), ListRequest{
			Bucket:  "test-bucket",
			MaxKeys: 10,
		})
		require.NoError(t, err)

		require.Len(t, listing.Pages, 2)
		assert.NoError(t, listing.Pages[0].Err)
		assert.ErrorIs(t, listing.Pages[1].Err, listErr)
		assert.ErrorIs(t, listing.Err, listErr)
		assert.Equal(t, []string{"a.txt"}, listing.Keys())
	})

	t.Run("resumes from a continuation token", func(t *testing.T) {
		lister := &scriptedLister{
			results: []*s3types.ListResult{
				{Objects: objects("k.txt")},
			},
		}
		session := connectedListingSession(t, lister)

		_, err := session.ListObjects(context.Background(), ListRequest{
			Bucket:            "test-bucket",
			MaxKeys:           10,
			ContinuationToken: "resume-here",
		})
		require.NoError(t, err)

		require.Len(t, lister.calls, 1)
		assert.Equal(t, "resume-here", lister.calls[0].config.ContinuationToken)
	})

	t.Run("prefix is forwarded", func(t *testing.T) {
		lister := &scriptedLister{
			results: []*s3types.ListResult{{}},
		}
		session := connectedListingSession(t, lister)

		_, err := session.ListObjects(context.Background(), ListRequest{
			Bucket:  "test-bucket",
			MaxKeys: 10,
			Prefix:  "photos/",
		})
		require.NoError(t, err)

		require.Len(t, lister.calls, 1)
		assert.Equal(t, "photos/", lister.calls[0].prefix)
	})
}

func TestSession_ListBucketsWithObjects(t *testing.T) {
	lister := &scriptedLister{
		results: []*s3types.ListResult{
			{Objects: objects("a/1.txt")},
			{Objects: objects("b/1.txt", "b/2.txt")},
		},
	}
	svc := &fakeService{
		ListBucketsFunc: func(ctx context.Context) ([]s3types.Bucket, error) {
			return []s3types.Bucket{{Name: "bucket-a"}, {Name: "bucket-b"}}, nil
		},
		ListFunc: lister.list,
	}

	session, _ := newTestSession(t, []profile.Profile{{Name: "prod"}}, svc)
	_, err := session.ConnectProfile(context.Background(), "prod")
	require.NoError(t, err)

	listings, err := session.ListBucketsWithObjects(context.Background(), 10, "", "")
	require.NoError(t, err)

	require.Len(t, listings, 2)
	assert.Equal(t, "bucket-a", listings[0].Bucket)
	assert.Equal(t, []string{"a/1.txt"}, listings[0].Keys())
	assert.Equal(t, "bucket-b", listings[1].Bucket)
	assert.Equal(t, []string{"b/1.txt", "b/2.txt"}, listings[1].Keys())
}
