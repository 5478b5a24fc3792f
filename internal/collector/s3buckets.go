package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/noobzero/security-monkey/internal/auditor"
	"github.com/noobzero/security-monkey/internal/confpath"
	"github.com/noobzero/security-monkey/internal/s3api"
	"github.com/noobzero/security-monkey/internal/shared"
)

// BucketPolicyKey is the extraction path for a bucket policy.
const BucketPolicyKey = "Policy"

// S3BucketCollector turns S3 buckets into items whose configuration carries
// the bucket policy.  Buckets without a bucket policy still become items;
// absence of a resource policy is not itself a finding.
type S3BucketCollector interface {
	Collect(ctx context.Context) ([]auditor.Item, error)
}

type _S3BucketCollector struct {
	accountId string
	s3Api     s3api.S3Api
}

type S3BucketCollectorConfig struct {
	AccountId string
	S3Api     s3api.S3Api
}

func NewS3BucketCollector(config S3BucketCollectorConfig) (S3BucketCollector, error) {
	if !shared.IsValidAwsAccountId(config.AccountId) {
		return nil, errors.New("invalid account id")
	}
	if config.S3Api == nil {
		return nil, errors.New("s3 api is required")
	}
	return &_S3BucketCollector{
		accountId: config.AccountId,
		s3Api:     config.S3Api,
	}, nil
}

func (c *_S3BucketCollector) Collect(ctx context.Context) ([]auditor.Item, error) {
	output, err := c.s3Api.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("listing s3 buckets for account [%s]: %w", c.accountId, err)
	}

	var items []auditor.Item
	for _, bucket := range output.Buckets {
		name := aws.ToString(bucket.Name)
		config := map[string]confpath.Value{}

		policyOutput, err := c.s3Api.GetBucketPolicy(ctx, &s3.GetBucketPolicyInput{
			Bucket: aws.String(name),
		})
		switch {
		case err != nil && strings.Contains(err.Error(), "NoSuchBucketPolicy"):
			// no bucket policy configured, still a valid item
			log.Printf("bucket [%v] has no bucket policy\n", name)
		case err != nil:
			return nil, fmt.Errorf("fetching bucket policy for [%s]: %w", name, err)
		default:
			policyValue, err := confpath.FromJSON([]byte(aws.ToString(policyOutput.Policy)))
			if err != nil {
				return nil, fmt.Errorf("parsing bucket policy for [%s]: %w", name, err)
			}
			config[BucketPolicyKey] = policyValue
		}

		items = append(items, auditor.Item{
			Identifier:   "arn:aws:s3:::" + name,
			ResourceType: shared.AwsS3Bucket,
			AccountID:    c.accountId,
			Config:       confpath.ObjectValue(config),
		})
	}
	return items, nil
}
