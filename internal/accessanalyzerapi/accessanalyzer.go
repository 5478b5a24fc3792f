package accessanalyzerapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/accessanalyzer"
)

type AccessAnalyzerApi interface {
	// validate policy (lint pass over extracted resource policies)
	ValidatePolicy(ctx context.Context, params *accessanalyzer.ValidatePolicyInput, optFns ...func(*accessanalyzer.Options)) (*accessanalyzer.ValidatePolicyOutput, error)
}

type _AccessAnalyzerApi struct {
	client *accessanalyzer.Client // access analyzer client
}

func NewAccessAnalyzerApi(client *accessanalyzer.Client) AccessAnalyzerApi {
	return &_AccessAnalyzerApi{
		client: client,
	}
}

// validate policy
func (a *_AccessAnalyzerApi) ValidatePolicy(ctx context.Context, params *accessanalyzer.ValidatePolicyInput, optFns ...func(*accessanalyzer.Options)) (*accessanalyzer.ValidatePolicyOutput, error) {
	return a.client.ValidatePolicy(ctx, params, optFns...)
}
