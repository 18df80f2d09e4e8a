package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash equals plaintext")
	}
	if !VerifyPassword(hash, "correct horse battery staple") {
		t.Error("correct password did not verify")
	}
	if VerifyPassword(hash, "wrong password") {
		t.Error("wrong password verified")
	}
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	// Verification failure is a normal outcome, never a panic or error.
	for _, digest := range []string{"", "not-a-bcrypt-hash", "$2a$xx$garbage"} {
		if VerifyPassword(digest, "anything") {
			t.Errorf("malformed digest %q verified", digest)
		}
	}
}
