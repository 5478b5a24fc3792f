// Package collector builds audited item snapshots from live AWS accounts or
// from previously collected files.
package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/noobzero/security-monkey/internal/auditor"
	"github.com/noobzero/security-monkey/internal/confpath"
	"github.com/noobzero/security-monkey/internal/iamapi"
	"github.com/noobzero/security-monkey/internal/shared"
)

// TrustPolicyKey is the extraction path for a role's trust policy.
const TrustPolicyKey = "AssumeRolePolicyDocument"

// IAMRoleCollector turns IAM roles into items whose configuration carries the
// role trust policy.  Trust policies are resource policies: they grant other
// principals the right to assume the role.
type IAMRoleCollector interface {
	Collect(ctx context.Context) ([]auditor.Item, error)
}

type _IAMRoleCollector struct {
	accountId string
	iamApi    iamapi.IamApi
}

type IAMRoleCollectorConfig struct {
	AccountId string
	IamApi    iamapi.IamApi
}

func NewIAMRoleCollector(config IAMRoleCollectorConfig) (IAMRoleCollector, error) {
	if !shared.IsValidAwsAccountId(config.AccountId) {
		return nil, errors.New("invalid account id")
	}
	if config.IamApi == nil {
		return nil, errors.New("iam api is required")
	}
	return &_IAMRoleCollector{
		accountId: config.AccountId,
		iamApi:    config.IamApi,
	}, nil
}

func (c *_IAMRoleCollector) Collect(ctx context.Context) ([]auditor.Item, error) {
	var items []auditor.Item
	var marker *string
	for {
		output, err := c.iamApi.ListRoles(ctx, &iam.ListRolesInput{Marker: marker})
		if err != nil {
			return nil, fmt.Errorf("listing iam roles for account [%s]: %w", c.accountId, err)
		}
		for _, role := range output.Roles {
			item, err := c.roleItem(aws.ToString(role.Arn), aws.ToString(role.AssumeRolePolicyDocument))
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if !output.IsTruncated {
			break
		}
		marker = output.Marker
	}
	return items, nil
}

func (c *_IAMRoleCollector) roleItem(roleArn string, trustPolicyDoc string) (auditor.Item, error) {
	config := map[string]confpath.Value{}
	if trustPolicyDoc != "" {
		// the sdk returns trust policy documents url-encoded
		decoded, err := url.QueryUnescape(trustPolicyDoc)
		if err != nil {
			return auditor.Item{}, fmt.Errorf("decoding trust policy for [%s]: %w", roleArn, err)
		}
		policyValue, err := confpath.FromJSON([]byte(decoded))
		if err != nil {
			return auditor.Item{}, fmt.Errorf("parsing trust policy for [%s]: %w", roleArn, err)
		}
		config[TrustPolicyKey] = policyValue
	}
	return auditor.Item{
		Identifier:   roleArn,
		ResourceType: shared.AwsIamRole,
		AccountID:    c.accountId,
		Config:       confpath.ObjectValue(config),
	}, nil
}
