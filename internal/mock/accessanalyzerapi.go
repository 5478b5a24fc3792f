package mock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/accessanalyzer"
)

type MockAccessAnalyzerApi struct {
	ValidatePolicyFn func(ctx context.Context, params *accessanalyzer.ValidatePolicyInput, optFns ...func(*accessanalyzer.Options)) (*accessanalyzer.ValidatePolicyOutput, error)
}

// validate policy
func (m *MockAccessAnalyzerApi) ValidatePolicy(ctx context.Context, params *accessanalyzer.ValidatePolicyInput, optFns ...func(*accessanalyzer.Options)) (*accessanalyzer.ValidatePolicyOutput, error) {
	if m.ValidatePolicyFn != nil {
		return m.ValidatePolicyFn(ctx, params, optFns...)
	}
	return &accessanalyzer.ValidatePolicyOutput{}, nil
}
