package auth

import "testing"

func TestHashPasswordRejectsBlank(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("   "); err == nil {
		t.Fatal("expected error for blank password")
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	creds := AdminCredentials{Username: "Admin", PasswordHash: hash}
	if !creds.Enabled() {
		t.Fatal("expected credentials to be enabled")
	}
	if !creds.Verify("admin", "correct horse battery staple") {
		t.Fatal("expected case-insensitive username match with correct password")
	}
	if creds.Verify("admin", "wrong password") {
		t.Fatal("expected wrong password to be rejected")
	}
	if creds.Verify("other", "correct horse battery staple") {
		t.Fatal("expected wrong username to be rejected")
	}
}

func TestVerifyDisabledCredentials(t *testing.T) {
	t.Parallel()

	var creds AdminCredentials
	if creds.Enabled() {
		t.Fatal("zero value must not be enabled")
	}
	if creds.Verify("anyone", "anything") {
		t.Fatal("disabled credentials must never verify")
	}

	partial := AdminCredentials{Username: "admin"}
	if partial.Enabled() || partial.Verify("admin", "") {
		t.Fatal("username without a hash must stay disabled")
	}
}
