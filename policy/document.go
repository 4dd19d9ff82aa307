// Package policy derives and attaches the bucket policy statement that gates
// object reads on the scan-status tag. The statement denies GetObject while
// an object is mid-scan or classified INFECTED/ERROR, for every principal
// except the scanner's own identity.
package policy

import (
	json "github.com/goccy/go-json"
)

// policyVersion is the IAM policy language version used for all documents.
const policyVersion = "2012-10-17"

// Document represents a bucket policy.
type Document struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement represents a single statement in a bucket policy.
type Statement struct {
	Sid       string                              `json:"Sid,omitempty"`
	Effect    string                              `json:"Effect"`
	Principal any                                 `json:"Principal,omitempty"`
	Action    StringOrSlice                       `json:"Action"`
	Resource  StringOrSlice                       `json:"Resource"`
	Condition map[string]map[string]StringOrSlice `json:"Condition,omitempty"`
}

// StringOrSlice handles JSON fields that can be either a string or an array
// of strings. Single values marshal back to a bare string so round-tripping
// an externally authored policy does not rewrite its shape.
type StringOrSlice []string

func (p *StringOrSlice) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*p = []string{single}
		return nil
	}
	var multi []string
	if err := json.Unmarshal(data, &multi); err == nil {
		*p = multi
		return nil
	}
	return json.Unmarshal(data, (*[]string)(p))
}

func (p StringOrSlice) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(p[0])
	}
	return json.Marshal([]string(p))
}

// NewDocument creates a document with the current policy version.
func NewDocument(stmts ...Statement) Document {
	return Document{Version: policyVersion, Statement: stmts}
}

// ParseDocument decodes a bucket policy. An empty input yields an empty
// document with the current policy version.
func ParseDocument(raw string) (Document, error) {
	if raw == "" {
		return Document{Version: policyVersion}, nil
	}
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Document{}, err
	}
	if doc.Version == "" {
		doc.Version = policyVersion
	}
	return doc, nil
}

// Encode serializes the document for PutBucketPolicy.
func (d Document) Encode() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Upsert replaces the statement carrying the same Sid, or appends when no
// statement carries it. Statements without a Sid are never touched, so a
// bucket's pre-existing policy survives re-registration unchanged.
func (d *Document) Upsert(stmt Statement) {
	for i, existing := range d.Statement {
		if existing.Sid != "" && existing.Sid == stmt.Sid {
			d.Statement[i] = stmt
			return
		}
	}
	d.Statement = append(d.Statement, stmt)
}

// CountSid returns how many statements carry the given Sid. Used to verify
// that repeated attachment never duplicates the deny statement.
func (d Document) CountSid(sid string) int {
	n := 0
	for _, stmt := range d.Statement {
		if stmt.Sid == sid {
			n++
		}
	}
	return n
}
