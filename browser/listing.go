package browser

import (
	"context"

	"github.com/lflfm/pys3b/s3"
	"github.com/lflfm/pys3b/s3/s3types"
)

// pageSize is the per-request key cap used while building a listing.
// Listings accumulate pages of at most this many keys until the caller's
// budget is spent.
const pageSize = 50

// ObjectPage is a single page of keys within a listing.
type ObjectPage struct {
	// Number is the 1-based page number
	Number int

	// Keys are the object keys on this page
	Keys []string

	// Prefixes are the common prefixes grouped by the delimiter
	Prefixes []string

	// Err records a failure fetching this page
	Err error
}

// Listing is the paged listing result for one bucket.
type Listing struct {
	// Bucket is the bucket that was listed
	Bucket string

	// Prefix is the key prefix the listing was restricted to
	Prefix string

	// Delimiter is the grouping delimiter ("" when listing flat)
	Delimiter string

	// Pages holds the fetched pages in order
	Pages []ObjectPage

	// Err records the failure that stopped the listing, if any
	Err error

	// HasMore indicates more keys exist beyond the fetched budget
	HasMore bool

	// ContinuationToken resumes the listing where it stopped
	ContinuationToken string
}

// ListRequest describes a paged listing.
type ListRequest struct {
	// Bucket to list (required)
	Bucket string

	// MaxKeys is the total key budget across pages
	MaxKeys int

	// Prefix restricts the listing to keys beginning with it
	Prefix string

	// Delimiter groups keys into common prefixes; "/" gives folder navigation
	Delimiter string

	// ContinuationToken resumes a previous listing
	ContinuationToken string
}

// ListObjects builds a paged listing for a bucket over the active
// connection. Pages of at most 50 keys are fetched until MaxKeys entries
// (keys plus prefixes) have been collected or the bucket is exhausted.
// A page that fails is recorded with its error and stops the listing.
func (s *Session) ListObjects(ctx context.Context, req ListRequest) (*Listing, error) {
	conn, err := s.connection()
	if err != nil {
		return nil, err
	}
	return buildListing(ctx, conn, req), nil
}

// ListBucketsWithObjects lists all buckets and builds a listing for each.
func (s *Session) ListBucketsWithObjects(
	ctx context.Context,
	maxKeys int,
	prefix, delimiter string,
) ([]Listing, error) {
	conn, err := s.connection()
	if err != nil {
		return nil, err
	}

	buckets, err := conn.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}

	listings := make([]Listing, 0, len(buckets))
	for _, bucket := range buckets {
		listing := buildListing(ctx, conn, ListRequest{
			Bucket:    bucket.Name,
			MaxKeys:   maxKeys,
			Prefix:    prefix,
			Delimiter: delimiter,
		})
		listings = append(listings, *listing)
	}

	return listings, nil
}

// buildListing fetches pages until the key budget is spent.
//
// An empty page that is still truncated (a delimiter can swallow a whole
// page of keys) continues with the next token rather than terminating.
// When the budget runs out with the bucket still truncated, the listing
// records HasMore and the token to resume from.
func buildListing(ctx context.Context, conn Service, req ListRequest) *Listing {
	listing := &Listing{
		Bucket:    req.Bucket,
		Prefix:    req.Prefix,
		Delimiter: req.Delimiter,
	}

	remaining := req.MaxKeys
	requestToken := req.ContinuationToken
	pageNumber := 1

	for remaining > 0 {
		opts := []s3types.ListOption{
			s3.WithMaxKeys(int32(minInt(remaining, pageSize))),
		}
		if req.Delimiter != "" {
			opts = append(opts, s3.WithDelimiter(req.Delimiter))
		}
		if requestToken != "" {
			opts = append(opts, s3.WithContinuationToken(requestToken))
		}

		result, err := conn.List(ctx, req.Bucket, req.Prefix, opts...)
		if err != nil {
			listing.Pages = append(listing.Pages, ObjectPage{Number: pageNumber, Err: err})
			listing.Err = err
			break
		}

		page := ObjectPage{Number: pageNumber}
		for _, obj := range result.Objects {
			page.Keys = append(page.Keys, obj.Key)
		}
		page.Prefixes = append(page.Prefixes, result.CommonPrefixes...)
		listing.Pages = append(listing.Pages, page)

		remaining -= len(page.Keys) + len(page.Prefixes)

		if len(page.Keys) == 0 && len(page.Prefixes) == 0 {
			if result.IsTruncated && result.NextContinuationToken != "" {
				requestToken = result.NextContinuationToken
				pageNumber++
				continue
			}
			break
		}

		if result.IsTruncated && remaining > 0 {
			requestToken = result.NextContinuationToken
			pageNumber++
			continue
		}

		if result.IsTruncated && result.NextContinuationToken != "" {
			listing.HasMore = true
			listing.ContinuationToken = result.NextContinuationToken
		}
		break
	}

	return listing
}

// Keys returns all keys across the listing's pages.
func (l *Listing) Keys() []string {
	var keys []string
	for _, page := range l.Pages {
		keys = append(keys, page.Keys...)
	}
	return keys
}

// Prefixes returns all common prefixes across the listing's pages.
func (l *Listing) Prefixes() []string {
	var prefixes []string
	for _, page := range l.Pages {
		prefixes = append(prefixes, page.Prefixes...)
	}
	return prefixes
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
