package mock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/iam"
)

type MockIamApi struct {
	ListRolesFn func(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error)
}

// list roles
func (m *MockIamApi) ListRoles(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error) {
	if m.ListRolesFn != nil {
		return m.ListRolesFn(ctx, params, optFns...)
	}
	return &iam.ListRolesOutput{}, nil
}
