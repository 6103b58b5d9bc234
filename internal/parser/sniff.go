package parser

import "bytes"

// Detect applies a very small heuristic on sampled bytes to decide whether
// the input looks like JSON records or delimited text. It does not attempt to
// be perfect; the result is only a hint for when no parser kind is configured.
func Detect(sample []byte) string {
	s := bytes.TrimSpace(sample)
	if len(s) == 0 {
		return "csv"
	}

	// JSON: first non-space char is { or [
	if s[0] == '{' || s[0] == '[' {
		return "jsonl"
	}
	return "csv"
}
