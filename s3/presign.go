package s3

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	s3errors "github.com/lflfm/pys3b/s3/errors"
	"github.com/lflfm/pys3b/s3/internal/validation"
	"github.com/lflfm/pys3b/s3/s3types"
)

// DefaultPresignExpiry is the presigned URL lifetime used when none is configured.
const DefaultPresignExpiry = 15 * time.Minute

// Presign generates a presigned URL for the given method.
//
// GET URLs can override the response content type and disposition. PUT URLs
// can constrain the content type and disposition the uploader must send.
// POST returns a browser-uploadable policy with form fields; see
// WithPostKeyMode and WithPostMaxSize for its key handling and size cap.
//
// Returns:
//   - *PresignResult: The URL, plus form fields for POST policies
//   - error: Returns an error if signing fails
//
// Errors:
//   - ErrInvalidBucketName: If the bucket name is invalid
//   - ErrInvalidInput: If the key is invalid, the method is unknown, the
//     expiry is out of range, or POST policy parameters are invalid
//
// Example:
//
//	result, err := client.Presign(ctx, s3types.PresignGet, "my-bucket", "report.pdf",
//	    s3.WithExpiry(time.Hour),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.URL)
func (c *Client) Presign(
	ctx context.Context,
	method s3types.PresignMethod,
	bucket, key string,
	opts ...s3types.PresignOption,
) (*s3types.PresignResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, s3errors.NewError("presign", s3errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, s3errors.NewError("presign", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if err := validation.ValidatePresignMethod(method); err != nil {
		return nil, err
	}

	config := &s3types.PresignConfig{
		Expires: DefaultPresignExpiry,
		KeyMode: s3types.PostKeySingle,
	}
	for _, opt := range opts {
		opt(config)
	}

	if err := validation.ValidateExpiry(config.Expires); err != nil {
		return nil, err
	}
	if err := validation.ValidateContentType(config.ContentType); err != nil {
		return nil, err
	}

	switch method {
	case s3types.PresignGet:
		return c.presignGet(ctx, bucket, key, config)
	case s3types.PresignPut:
		return c.presignPut(ctx, bucket, key, config)
	default:
		return c.presignPost(ctx, bucket, key, config)
	}
}

// presignGet generates a presigned GET URL.
func (c *Client) presignGet(
	ctx context.Context,
	bucket, key string,
	config *s3types.PresignConfig,
) (*s3types.PresignResult, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if config.ContentType != "" {
		input.ResponseContentType = aws.String(config.ContentType)
	}
	if config.ContentDisposition != "" {
		input.ResponseContentDisposition = aws.String(config.ContentDisposition)
	}

	request, err := c.presignClient.PresignGetObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = config.Expires
	})
	if err != nil {
		return nil, s3errors.NewError("presignGet", err).WithBucket(bucket).WithKey(key)
	}

	return &s3types.PresignResult{URL: request.URL}, nil
}

// presignPut generates a presigned PUT URL.
func (c *Client) presignPut(
	ctx context.Context,
	bucket, key string,
	config *s3types.PresignConfig,
) (*s3types.PresignResult, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if config.ContentType != "" {
		input.ContentType = aws.String(config.ContentType)
	}
	if config.ContentDisposition != "" {
		input.ContentDisposition = aws.String(config.ContentDisposition)
	}

	request, err := c.presignClient.PresignPutObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = config.Expires
	})
	if err != nil {
		return nil, s3errors.NewError("presignPut", err).WithBucket(bucket).WithKey(key)
	}

	return &s3types.PresignResult{URL: request.URL}, nil
}

// presignPost generates a presigned POST policy.
//
// In prefix mode the key becomes "<prefix>/${filename}" and the policy
// carries a starts-with condition so the uploader picks the final name.
// The policy always caps upload size with a content-length-range condition.
func (c *Client) presignPost(
	ctx context.Context,
	bucket, key string,
	config *s3types.PresignConfig,
) (*s3types.PresignResult, error) {
	if err := validation.ValidatePostPolicy(config.KeyMode, config.MaxSize); err != nil {
		return nil, err
	}

	conditions := []interface{}{
		[]interface{}{"content-length-range", int64(0), config.MaxSize},
	}

	postKey := key
	if config.KeyMode == s3types.PostKeyPrefix {
		prefix := strings.TrimRight(key, "/") + "/"
		postKey = prefix + "${filename}"
		conditions = append(conditions, []interface{}{"starts-with", "$key", prefix})
	}

	if config.ContentType != "" {
		conditions = append(conditions, []interface{}{"eq", "$Content-Type", config.ContentType})
	}

	request, err := c.presignClient.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(postKey),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = config.Expires
		o.Conditions = conditions
	})
	if err != nil {
		return nil, s3errors.NewError("presignPost", err).WithBucket(bucket).WithKey(key)
	}

	fields := make(map[string]string, len(request.Values)+2)
	for k, v := range request.Values {
		fields[k] = v
	}
	if _, ok := fields["key"]; !ok {
		fields["key"] = postKey
	}
	if config.ContentType != "" {
		fields["Content-Type"] = config.ContentType
	}

	return &s3types.PresignResult{
		URL:    request.URL,
		Fields: fields,
	}, nil
}
