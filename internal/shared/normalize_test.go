package shared

import "testing"

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Admin@LocalHost "); got != "admin@localhost" {
		t.Fatalf("unexpected email %q", got)
	}
}

func TestNormalizeUsername(t *testing.T) {
	// U+FB01 (fi ligature) folds to "fi" under NFKC.
	if got := NormalizeUsername(" ﬁona "); got != "fiona" {
		t.Fatalf("unexpected username %q", got)
	}
	if got := NormalizeUsername("Fiona"); got != "Fiona" {
		t.Fatalf("case must be preserved, got %q", got)
	}
}

func TestValidEmail(t *testing.T) {
	for _, email := range []string{"admin@localhost", "carol@example.com", "a.b+tag@sub.example.org"} {
		if !ValidEmail(email) {
			t.Fatalf("expected %q to be accepted", email)
		}
	}
	for _, email := range []string{"", "not-an-email", "@localhost", "admin@", "Admin <admin@localhost>"} {
		if ValidEmail(email) {
			t.Fatalf("expected %q to be rejected", email)
		}
	}
}
