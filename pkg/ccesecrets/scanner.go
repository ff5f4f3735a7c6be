// Package ccesecrets wires the Gitleaks SDK into
// github.com/fyrsmithlabs/cce's classifier as an opt-in, additive
// confirmation of the api_key hard-T0 signal. It lives outside pkg/cce so
// that importing the core never pulls in Gitleaks' detection engine; a
// caller that wants the deeper scan builds a scanner with NewScanner and
// assigns it to CompressOptions.DeepSecretScanner.
package ccesecrets

import "github.com/zricethezav/gitleaks/v8/detect"

// NewScanner builds a default-config Gitleaks detector and returns a
// closure bound to it. Each call returns an independent scanner with its
// own detector instance — callers running concurrent compressions with
// different configurations never share state through this package.
func NewScanner() (func(string) bool, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, err
	}
	return func(content string) bool {
		return len(d.DetectString(content)) > 0
	}, nil
}
