package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
)

// IAMClient is a mock implementation of aws.IAMClient holding roles and
// their inline policies.
type IAMClient struct {
	mu sync.Mutex

	// Roles maps role name to role ARN.
	Roles map[string]string
	// InlinePolicies maps role name to policy name to policy document.
	InlinePolicies map[string]map[string]string

	GetRoleErr   error
	PutPolicyErr error
}

// NewIAMClient creates a new mock IAM client
func NewIAMClient() *IAMClient {
	return &IAMClient{
		Roles:          make(map[string]string),
		InlinePolicies: make(map[string]map[string]string),
	}
}

// AddRole seeds a role for test setup
func (m *IAMClient) AddRole(name, arn string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Roles[name] = arn
}

// GetRole returns the seeded role or a NoSuchEntity error
func (m *IAMClient) GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetRoleErr != nil {
		return nil, m.GetRoleErr
	}
	arn, ok := m.Roles[*params.RoleName]
	if !ok {
		msg := fmt.Sprintf("role %s not found", *params.RoleName)
		return nil, &types.NoSuchEntityException{Message: &msg}
	}
	name := *params.RoleName
	return &iam.GetRoleOutput{Role: &types.Role{RoleName: &name, Arn: &arn}}, nil
}

// PutRolePolicy stores the inline policy under the role
func (m *IAMClient) PutRolePolicy(ctx context.Context, params *iam.PutRolePolicyInput, optFns ...func(*iam.Options)) (*iam.PutRolePolicyOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutPolicyErr != nil {
		return nil, m.PutPolicyErr
	}
	role := *params.RoleName
	if m.InlinePolicies[role] == nil {
		m.InlinePolicies[role] = make(map[string]string)
	}
	m.InlinePolicies[role][*params.PolicyName] = *params.PolicyDocument
	return &iam.PutRolePolicyOutput{}, nil
}

// PolicyCount returns how many inline policies a role carries
func (m *IAMClient) PolicyCount(role string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.InlinePolicies[role])
}
