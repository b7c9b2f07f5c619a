package s3

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockS3Middleware short-circuits the request before it is signed and sent.
func mockS3Middleware(output interface{}, err error, seen func(*s3.PutObjectInput)) func(*middleware.Stack) error {
	return func(stack *middleware.Stack) error {
		return stack.Finalize.Add(
			middleware.FinalizeMiddlewareFunc("MockMiddleware", func(ctx context.Context, in middleware.FinalizeInput, next middleware.FinalizeHandler) (middleware.FinalizeOutput, middleware.Metadata, error) {
				if input, ok := middleware.GetOperationInput(ctx).(*s3.PutObjectInput); ok && seen != nil {
					seen(input)
				}
				return middleware.FinalizeOutput{Result: output}, middleware.Metadata{}, err
			}),
			middleware.Before,
		)
	}
}

func newTestClient(output interface{}, err error, seen func(*s3.PutObjectInput)) *s3.Client {
	return s3.NewFromConfig(aws.Config{Region: "us-east-1"}, func(o *s3.Options) {
		o.UsePathStyle = true
		o.APIOptions = append(o.APIOptions, mockS3Middleware(output, err, seen))
	})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestPutFile(t *testing.T) {
	var captured *s3.PutObjectInput
	client := newTestClient(&s3.PutObjectOutput{}, nil, func(in *s3.PutObjectInput) { captured = in })

	store := NewWithClient(client, "notes", testLogger())
	ref, err := store.PutFile(context.Background(), "inbox/2024-03-09-0705-T.md", "# T\n")

	require.NoError(t, err)
	assert.Equal(t, "s3://notes/inbox/2024-03-09-0705-T.md", ref)

	require.NotNil(t, captured)
	assert.Equal(t, "notes", aws.ToString(captured.Bucket))
	assert.Equal(t, "inbox/2024-03-09-0705-T.md", aws.ToString(captured.Key))
	assert.Equal(t, "text/markdown; charset=utf-8", aws.ToString(captured.ContentType))
}

func TestPutFile_Error(t *testing.T) {
	client := newTestClient(nil, errors.New("access denied"), nil)

	store := NewWithClient(client, "notes", testLogger())
	_, err := store.PutFile(context.Background(), "inbox/a.md", "a")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "put object inbox/a.md")
	assert.Contains(t, err.Error(), "access denied")
}
