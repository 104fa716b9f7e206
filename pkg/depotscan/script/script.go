// Package script renders and parses the Lua unlock scripts built from
// scanned depot manifests.
//
// A script is one addappid statement followed by a setManifestid statement
// per manifest and, when a key is known, a setDecryptionKey statement:
//
//	addappid(480)
//	setManifestid(480,"111")
//	setDecryptionKey(480,"deadbeef...")
package script

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
)

// Entry is one manifest line and its optional key.
type Entry struct {
	ManifestID    string `json:"manifest_id" yaml:"manifest_id"`
	DecryptionKey string `json:"decryption_key,omitempty" yaml:"decryption_key,omitempty"`
}

// Script is a parsed or generated unlock script.
type Script struct {
	AppID   string  `json:"app_id" yaml:"app_id"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// FromRecords builds a script for appID. Records without a manifest ID are
// skipped. Values that cannot sit inside a string literal are rejected.
func FromRecords(appID string, records []types.ManifestRecord) (*Script, error) {
	if appID == "" {
		return nil, fmt.Errorf("%w: empty app id", types.ErrInvalidInput)
	}
	s := &Script{AppID: appID}
	for _, r := range records {
		if r.ManifestID == "" {
			continue
		}
		if !quotable(r.ManifestID) {
			return nil, fmt.Errorf("%w: manifest id %q for depot %s", types.ErrInvalidInput, r.ManifestID, r.DepotID)
		}
		if !quotable(r.DecryptionKey) {
			return nil, fmt.Errorf("%w: decryption key for depot %s contains quote or control characters", types.ErrInvalidInput, r.DepotID)
		}
		s.Entries = append(s.Entries, Entry{ManifestID: r.ManifestID, DecryptionKey: r.DecryptionKey})
	}
	return s, nil
}

// quotable reports whether v can be written between double quotes and read
// back unchanged.
func quotable(v string) bool {
	for _, r := range v {
		if r == '"' || r == '\\' || r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

// Generate renders the script text for appID and records.
func Generate(appID string, records []types.ManifestRecord) (string, error) {
	s, err := FromRecords(appID, records)
	if err != nil {
		return "", err
	}
	return s.String(), nil
}

// String renders the script. Every statement is newline terminated.
func (s *Script) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "addappid(%s)\n", s.AppID)
	for _, e := range s.Entries {
		fmt.Fprintf(&b, "setManifestid(%s,\"%s\")\n", s.AppID, e.ManifestID)
		if e.DecryptionKey != "" {
			fmt.Fprintf(&b, "setDecryptionKey(%s,\"%s\")\n", s.AppID, e.DecryptionKey)
		}
	}
	return b.String()
}

// KeyedEntries returns how many entries carry a key.
func (s *Script) KeyedEntries() int {
	n := 0
	for _, e := range s.Entries {
		if e.DecryptionKey != "" {
			n++
		}
	}
	return n
}

var (
	addAppPattern   = regexp.MustCompile(`^addappid\(\s*(\d+)\s*\)$`)
	manifestPattern = regexp.MustCompile(`^setManifestid\(\s*(\d+)\s*,\s*"([^"]*)"\s*\)$`)
	keyPattern      = regexp.MustCompile(`^setDecryptionKey\(\s*(\d+)\s*,\s*"([^"]*)"\s*\)$`)
	hexKeyPattern   = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

// ParseError reports the first offending line of a script.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// Unwrap lets errors.Is match types.ErrParse.
func (e *ParseError) Unwrap() error {
	return types.ErrParse
}

// Parse reads a script produced by Generate. Blank lines and "--" comments
// are ignored.
func Parse(text string) (*Script, error) {
	var s *Script
	sc := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		line = strings.TrimSuffix(line, ";")

		if m := addAppPattern.FindStringSubmatch(line); m != nil {
			if s != nil {
				return nil, &ParseError{Line: lineNo, Text: line, Msg: "duplicate addappid"}
			}
			s = &Script{AppID: m[1]}
			continue
		}
		if s == nil {
			return nil, &ParseError{Line: lineNo, Text: line, Msg: "statement before addappid"}
		}

		if m := manifestPattern.FindStringSubmatch(line); m != nil {
			if m[1] != s.AppID {
				return nil, &ParseError{Line: lineNo, Text: line, Msg: "app id mismatch"}
			}
			s.Entries = append(s.Entries, Entry{ManifestID: m[2]})
			continue
		}
		if m := keyPattern.FindStringSubmatch(line); m != nil {
			if m[1] != s.AppID {
				return nil, &ParseError{Line: lineNo, Text: line, Msg: "app id mismatch"}
			}
			n := len(s.Entries)
			if n == 0 || s.Entries[n-1].DecryptionKey != "" {
				return nil, &ParseError{Line: lineNo, Text: line, Msg: "key without manifest"}
			}
			s.Entries[n-1].DecryptionKey = m[2]
			continue
		}
		return nil, &ParseError{Line: lineNo, Text: line, Msg: "unknown statement"}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrParse, err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: no addappid statement", types.ErrParse)
	}
	return s, nil
}

// Problem is a semantic issue found by Validate.
type Problem struct {
	ManifestID string
	Msg        string
}

func (p Problem) String() string {
	return fmt.Sprintf("manifest %s: %s", p.ManifestID, p.Msg)
}

// Validate checks that manifest IDs are numeric, unique, and that keys are
// 64 hex characters.
func (s *Script) Validate() []Problem {
	var problems []Problem
	seen := make(map[string]struct{})
	for _, e := range s.Entries {
		if !types.ValidAppID(e.ManifestID) {
			problems = append(problems, Problem{e.ManifestID, "manifest id is not numeric"})
		}
		if _, dup := seen[e.ManifestID]; dup {
			problems = append(problems, Problem{e.ManifestID, "duplicate manifest"})
		}
		seen[e.ManifestID] = struct{}{}
		if e.DecryptionKey != "" && !hexKeyPattern.MatchString(e.DecryptionKey) {
			problems = append(problems, Problem{e.ManifestID, "decryption key is not 64 hex characters"})
		}
	}
	return problems
}
