package iamapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/iam"
)

type IamApi interface {
	// list roles (role objects include the url-encoded trust policy)
	ListRoles(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error)
}

type _IamApi struct {
	client *iam.Client
}

func NewIamApi(client *iam.Client) IamApi {
	return &_IamApi{
		client: client,
	}
}

// list roles
func (api *_IamApi) ListRoles(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error) {
	return api.client.ListRoles(ctx, params, optFns...)
}
