package mock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// STSClient is a mock implementation of aws.STSClient reporting a fixed
// account.
type STSClient struct {
	Account string
	Err     error
}

// NewSTSClient creates a new mock STS client for the given account
func NewSTSClient(account string) *STSClient {
	return &STSClient{Account: account}
}

// GetCallerIdentity returns the configured account
func (m *STSClient) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	account := m.Account
	return &sts.GetCallerIdentityOutput{Account: &account}, nil
}
