package policy

import (
	"fmt"

	"scangate/scanstatus"
	"scangate/trust"
)

// DenySid identifies the gatekeeper's deny statement inside a bucket policy.
// Attachment is keyed on it, so re-attaching replaces rather than duplicates.
const DenySid = "DenyReadsWhilePendingOrInfected"

// gatedStatuses are the tag values under which reads must be denied. CLEAN
// is deliberately absent and an absent tag matches nothing, which leaves a
// window between upload and the scanner's IN PROGRESS tag write where a read
// can pass. That window exists in the underlying platform; the statement
// does not pretend otherwise.
var gatedStatuses = []string{
	scanstatus.InProgress.String(),
	scanstatus.Infected.String(),
	scanstatus.Error.String(),
}

// DenyStatementFor derives the deny statement for a bucket: GetObject is
// denied on every object whose scan-status tag is IN PROGRESS, INFECTED or
// ERROR, unless the caller is the scanner itself (either ARN form).
//
// The derivation is pure and deterministic: the same bucket and principal
// set always produce a structurally identical statement, so it can be
// recomputed and re-attached idempotently.
func DenyStatementFor(bucket string, anchor trust.Principal) (Statement, error) {
	if anchor.IsZero() {
		return Statement{}, trust.ErrTrustAnchorUndefined
	}

	tagCondition := fmt.Sprintf("s3:ExistingObjectTag/%s", scanstatus.TagKey)
	statuses := make(StringOrSlice, len(gatedStatuses))
	copy(statuses, gatedStatuses)

	return Statement{
		Sid:       DenySid,
		Effect:    "Deny",
		Principal: "*",
		Action:    StringOrSlice{"s3:GetObject"},
		Resource:  StringOrSlice{fmt.Sprintf("arn:aws:s3:::%s/*", bucket)},
		Condition: map[string]map[string]StringOrSlice{
			"StringEquals": {
				tagCondition: statuses,
			},
			"ArnNotEquals": {
				"aws:PrincipalArn": StringOrSlice(anchor.ARNs()),
			},
		},
	}, nil
}

// ScannerAccessStatements derives the statements granted to the scanner role
// for a bucket: object reads plus scan-status tag writes. No other identity
// receives tag-write access, which is what keeps an INFECTED tag from being
// cleared to bypass the deny statement.
func ScannerAccessStatements(bucket string) []Statement {
	objects := fmt.Sprintf("arn:aws:s3:::%s/*", bucket)
	return []Statement{
		{
			Sid:    "ReadObjectsForScanning",
			Effect: "Allow",
			Action: StringOrSlice{
				"s3:GetObject",
				"s3:GetObjectVersion",
				"s3:GetObjectTagging",
				"s3:GetObjectVersionTagging",
			},
			Resource: StringOrSlice{objects},
		},
		{
			Sid:    "WriteScanStatusTags",
			Effect: "Allow",
			Action: StringOrSlice{
				"s3:PutObjectTagging",
				"s3:PutObjectVersionTagging",
			},
			Resource: StringOrSlice{objects},
		},
		{
			Sid:      "ListBucketForScanning",
			Effect:   "Allow",
			Action:   StringOrSlice{"s3:ListBucket"},
			Resource: StringOrSlice{fmt.Sprintf("arn:aws:s3:::%s", bucket)},
		},
	}
}
