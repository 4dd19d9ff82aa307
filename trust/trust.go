// Package trust models the scanner's execution identity. The platform
// represents "the scanner is running" as an STS session assumed from the
// scanner's role, so the same trust anchor appears under two ARNs: the
// stable role ARN and the runtime assumed-session ARN. Both forms are held
// together as one set-valued principal and every inclusion check covers the
// whole set.
package trust

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"scangate/aws"
)

// ErrTrustAnchorUndefined is returned when policy derivation is attempted
// before the scanner's execution identity has been resolved. This is a
// construction-order violation, not a runtime condition.
var ErrTrustAnchorUndefined = errors.New("trust anchor undefined: scanner execution identity has not been resolved")

// Principal is the scanner's execution identity as a set of ARNs.
// Example:
//
//	p, err := trust.NewPrincipal(
//	    "arn:aws:iam::123456789012:role/scanner",
//	    "arn:aws:sts::123456789012:assumed-role/scanner/scan-fn",
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(p.Contains("arn:aws:iam::123456789012:role/scanner")) // true
type Principal struct {
	roleARN    string
	sessionARN string
}

// NewPrincipal creates a Principal from the scanner's role ARN and its
// assumed-session ARN. Both must be present: a principal with only one form
// would let the other form of the same identity be denied by the bucket
// policy it is meant to be excluded from.
func NewPrincipal(roleARN, sessionARN string) (Principal, error) {
	if roleARN == "" || sessionARN == "" {
		return Principal{}, ErrTrustAnchorUndefined
	}
	return Principal{roleARN: roleARN, sessionARN: sessionARN}, nil
}

// IsZero reports whether the principal has not been resolved.
func (p Principal) IsZero() bool {
	return p.roleARN == "" && p.sessionARN == ""
}

// ARNs returns both forms of the identity in a stable order, role first.
// The order is fixed so that policy statements derived from the principal
// are structurally identical across derivations.
func (p Principal) ARNs() []string {
	return []string{p.roleARN, p.sessionARN}
}

// RoleARN returns the stable role form of the identity.
func (p Principal) RoleARN() string {
	return p.roleARN
}

// Contains reports whether the given ARN is one of the identity's forms.
func (p Principal) Contains(arn string) bool {
	return arn != "" && (arn == p.roleARN || arn == p.sessionARN)
}

// Resolver resolves the trust anchor from the live account: the role ARN
// comes from IAM, and the assumed-session ARN is derived from the owning
// account and the scanner's session name.
type Resolver struct {
	iam aws.IAMClient
	sts aws.STSClient
}

// NewResolver creates a new Resolver instance
func NewResolver(iamClient aws.IAMClient, stsClient aws.STSClient) *Resolver {
	return &Resolver{iam: iamClient, sts: stsClient}
}

// Resolve looks up the scanner role and derives the assumed-session ARN.
// The session name of a function execution is the function name.
// Example:
//
//	resolver := trust.NewResolver(iamClient, stsClient)
//	anchor, err := resolver.Resolve(ctx, "scanner-role", "scan-fn")
//	if err != nil {
//	    log.Fatal(err)
//	}
func (r *Resolver) Resolve(ctx context.Context, roleName, sessionName string) (Principal, error) {
	if roleName == "" || sessionName == "" {
		return Principal{}, fmt.Errorf("role and session names are required: %w", ErrTrustAnchorUndefined)
	}

	role, err := r.iam.GetRole(ctx, &iam.GetRoleInput{RoleName: &roleName})
	if err != nil {
		return Principal{}, fmt.Errorf("failed to resolve scanner role %s: %w", roleName, err)
	}
	if role.Role == nil || role.Role.Arn == nil {
		return Principal{}, fmt.Errorf("scanner role %s has no ARN: %w", roleName, ErrTrustAnchorUndefined)
	}

	ident, err := r.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Principal{}, fmt.Errorf("failed to resolve owning account: %w", err)
	}
	if ident.Account == nil {
		return Principal{}, fmt.Errorf("caller identity has no account: %w", ErrTrustAnchorUndefined)
	}

	sessionARN := fmt.Sprintf("arn:aws:sts::%s:assumed-role/%s/%s", *ident.Account, roleName, sessionName)
	return NewPrincipal(*role.Role.Arn, sessionARN)
}
