package httpds

import "testing"

func TestHashString_Stable(t *testing.T) {
	t.Parallel()

	const input = "https://data.example.com/exports?dataset=hr_events&from=2025-01-01"
	got1 := HashString(input)
	got2 := HashString(input)

	if got1 == "" {
		t.Fatalf("HashString returned empty string")
	}
	if got1 != got2 {
		t.Fatalf("HashString(%q) not stable: %q vs %q", input, got1, got2)
	}
}

func TestSafeFilenameFromURL_UsesQuery(t *testing.T) {
	t.Parallel()

	raw := "https://data.example.com/exports?dataset=hr_events&format=csv"
	got := SafeFilenameFromURL(raw)

	if got == "" {
		t.Fatalf("SafeFilenameFromURL(%q) returned empty filename", raw)
	}
	for _, r := range got {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_') {
			t.Fatalf("SafeFilenameFromURL(%q) produced invalid char %q in %q", raw, r, got)
		}
	}
}

func TestSafeFilenameFromURL_FallsBackOnInvalidURL(t *testing.T) {
	t.Parallel()

	raw := ":// not a url"
	got := SafeFilenameFromURL(raw)

	if got == "" {
		t.Fatalf("SafeFilenameFromURL(%q) returned empty string for invalid URL", raw)
	}
	if got == raw {
		t.Fatalf("SafeFilenameFromURL(%q) returned raw input, want hash", raw)
	}
}

func TestSafeFilenameFromURL_FallsBackOnEmptyQuery(t *testing.T) {
	t.Parallel()

	raw := "https://data.example.com/exports/hr_events.csv"
	got := SafeFilenameFromURL(raw)

	if got == "" {
		t.Fatalf("SafeFilenameFromURL(%q) returned empty string", raw)
	}
	// No query string, so the whole URL is hashed rather than using the path.
	if got == "hr_events.csv" {
		t.Fatalf("SafeFilenameFromURL(%q) unexpectedly used path instead of hash", raw)
	}
}
