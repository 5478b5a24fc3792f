package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"

	"github.com/noobzero/security-monkey/internal/confpath"
	"github.com/noobzero/security-monkey/internal/mock"
	"github.com/noobzero/security-monkey/internal/shared"
)

const testBucketPolicy = `{"Version": "2012-10-17", "Statement": [{"Effect": "Allow", "Action": "s3:GetObject", "Principal": "*"}]}`

func TestNewS3BucketCollector(t *testing.T) {
	assertion := assert.New(t)

	var tests = []struct {
		name          string
		input         S3BucketCollectorConfig
		expectedValid bool
	}{
		{"valid config", S3BucketCollectorConfig{AccountId: testAccountId, S3Api: &mock.MockS3Api{}}, true},
		{"invalid account id", S3BucketCollectorConfig{AccountId: "bad", S3Api: &mock.MockS3Api{}}, false},
		{"missing s3 api", S3BucketCollectorConfig{AccountId: testAccountId}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			collector, err := NewS3BucketCollector(test.input)
			if test.expectedValid {
				assertion.NoError(err)
				assertion.NotNil(collector)
			} else {
				assertion.Error(err)
			}
		})
	}
}

func TestS3BucketCollectorCollect(t *testing.T) {
	assertion := assert.New(t)

	t.Run("buckets become items with their policy", func(t *testing.T) {
		s3Api := &mock.MockS3Api{
			ListBucketsFn: func(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
				return &s3.ListBucketsOutput{Buckets: []s3Types.Bucket{{Name: aws.String("data-bucket")}}}, nil
			},
			GetBucketPolicyFn: func(ctx context.Context, params *s3.GetBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.GetBucketPolicyOutput, error) {
				assertion.Equal("data-bucket", aws.ToString(params.Bucket))
				return &s3.GetBucketPolicyOutput{Policy: aws.String(testBucketPolicy)}, nil
			},
		}
		collector, err := NewS3BucketCollector(S3BucketCollectorConfig{AccountId: testAccountId, S3Api: s3Api})
		assertion.NoError(err)

		items, err := collector.Collect(context.Background())
		assertion.NoError(err)
		assertion.Len(items, 1)
		assertion.Equal("arn:aws:s3:::data-bucket", items[0].Identifier)
		assertion.Equal(shared.AwsS3Bucket, items[0].ResourceType)

		matches, err := confpath.Values(items[0].Config, BucketPolicyKey, confpath.DefaultSeparator)
		assertion.NoError(err)
		assertion.Len(matches, 1)
	})

	t.Run("buckets without a policy still become items", func(t *testing.T) {
		s3Api := &mock.MockS3Api{
			ListBucketsFn: func(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
				return &s3.ListBucketsOutput{Buckets: []s3Types.Bucket{{Name: aws.String("plain-bucket")}}}, nil
			},
			GetBucketPolicyFn: func(ctx context.Context, params *s3.GetBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.GetBucketPolicyOutput, error) {
				return nil, errors.New("NoSuchBucketPolicy: The bucket policy does not exist")
			},
		}
		collector, err := NewS3BucketCollector(S3BucketCollectorConfig{AccountId: testAccountId, S3Api: s3Api})
		assertion.NoError(err)

		items, err := collector.Collect(context.Background())
		assertion.NoError(err)
		assertion.Len(items, 1)

		_, err = confpath.Values(items[0].Config, BucketPolicyKey, confpath.DefaultSeparator)
		assertion.ErrorIs(err, confpath.ErrPathNotFound)
	})

	t.Run("other policy fetch failures propagate", func(t *testing.T) {
		s3Api := &mock.MockS3Api{
			ListBucketsFn: func(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
				return &s3.ListBucketsOutput{Buckets: []s3Types.Bucket{{Name: aws.String("locked-bucket")}}}, nil
			},
			GetBucketPolicyFn: func(ctx context.Context, params *s3.GetBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.GetBucketPolicyOutput, error) {
				return nil, errors.New("AccessDenied")
			},
		}
		collector, err := NewS3BucketCollector(S3BucketCollectorConfig{AccountId: testAccountId, S3Api: s3Api})
		assertion.NoError(err)

		_, err = collector.Collect(context.Background())
		assertion.Error(err)
	})
}
