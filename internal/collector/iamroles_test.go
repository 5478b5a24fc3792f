package collector

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamTypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/stretchr/testify/assert"

	"github.com/noobzero/security-monkey/internal/confpath"
	"github.com/noobzero/security-monkey/internal/mock"
	"github.com/noobzero/security-monkey/internal/shared"
)

const testAccountId = "012345678910"

const testTrustPolicy = `{"Version": "2012-10-17", "Statement": [{"Effect": "Allow", "Action": "sts:AssumeRole", "Principal": {"AWS": "arn:aws:iam::111111111111:root"}}]}`

func TestNewIAMRoleCollector(t *testing.T) {
	assertion := assert.New(t)

	var tests = []struct {
		name          string
		input         IAMRoleCollectorConfig
		expectedValid bool
	}{
		{"valid config", IAMRoleCollectorConfig{AccountId: testAccountId, IamApi: &mock.MockIamApi{}}, true},
		{"invalid account id", IAMRoleCollectorConfig{AccountId: "not-an-account", IamApi: &mock.MockIamApi{}}, false},
		{"missing iam api", IAMRoleCollectorConfig{AccountId: testAccountId}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			collector, err := NewIAMRoleCollector(test.input)
			if test.expectedValid {
				assertion.NoError(err)
				assertion.NotNil(collector)
			} else {
				assertion.Error(err)
			}
		})
	}
}

func TestIAMRoleCollectorCollect(t *testing.T) {
	assertion := assert.New(t)

	t.Run("roles become items with a decoded trust policy", func(t *testing.T) {
		iamApi := &mock.MockIamApi{
			ListRolesFn: func(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error) {
				return &iam.ListRolesOutput{Roles: []iamTypes.Role{
					{
						Arn:                      aws.String("arn:aws:iam::012345678910:role/app"),
						AssumeRolePolicyDocument: aws.String(url.QueryEscape(testTrustPolicy)),
					},
				}}, nil
			},
		}
		collector, err := NewIAMRoleCollector(IAMRoleCollectorConfig{AccountId: testAccountId, IamApi: iamApi})
		assertion.NoError(err)

		items, err := collector.Collect(context.Background())
		assertion.NoError(err)
		assertion.Len(items, 1)
		assertion.Equal("arn:aws:iam::012345678910:role/app", items[0].Identifier)
		assertion.Equal(shared.AwsIamRole, items[0].ResourceType)
		assertion.Equal(testAccountId, items[0].AccountID)

		matches, err := confpath.Values(items[0].Config, TrustPolicyKey, confpath.DefaultSeparator)
		assertion.NoError(err)
		assertion.Len(matches, 1)
		assertion.Equal(confpath.Object, matches[0].Kind())
	})

	t.Run("pagination follows the marker", func(t *testing.T) {
		calls := 0
		iamApi := &mock.MockIamApi{
			ListRolesFn: func(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error) {
				calls++
				if params.Marker == nil {
					return &iam.ListRolesOutput{
						Roles:       []iamTypes.Role{{Arn: aws.String("arn:aws:iam::012345678910:role/first")}},
						IsTruncated: true,
						Marker:      aws.String("page-2"),
					}, nil
				}
				assertion.Equal("page-2", aws.ToString(params.Marker))
				return &iam.ListRolesOutput{
					Roles: []iamTypes.Role{{Arn: aws.String("arn:aws:iam::012345678910:role/second")}},
				}, nil
			},
		}
		collector, err := NewIAMRoleCollector(IAMRoleCollectorConfig{AccountId: testAccountId, IamApi: iamApi})
		assertion.NoError(err)

		items, err := collector.Collect(context.Background())
		assertion.NoError(err)
		assertion.Len(items, 2)
		assertion.Equal(2, calls)
	})

	t.Run("api failure propagates", func(t *testing.T) {
		iamApi := &mock.MockIamApi{
			ListRolesFn: func(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error) {
				return nil, errors.New("access denied")
			},
		}
		collector, err := NewIAMRoleCollector(IAMRoleCollectorConfig{AccountId: testAccountId, IamApi: iamApi})
		assertion.NoError(err)

		_, err = collector.Collect(context.Background())
		assertion.Error(err)
	})
}
