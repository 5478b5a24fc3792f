package mock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/configservice"
)

type MockConfigServiceApi struct {
	PutEvaluationsFn func(ctx context.Context, params *configservice.PutEvaluationsInput, optFns ...func(*configservice.Options)) (*configservice.PutEvaluationsOutput, error)
}

// put evaluations
func (m *MockConfigServiceApi) PutEvaluations(ctx context.Context, params *configservice.PutEvaluationsInput, optFns ...func(*configservice.Options)) (*configservice.PutEvaluationsOutput, error) {
	if m.PutEvaluationsFn != nil {
		return m.PutEvaluationsFn(ctx, params, optFns...)
	}
	return &configservice.PutEvaluationsOutput{}, nil
}
