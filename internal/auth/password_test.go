package auth

import (
	"strings"
	"testing"
)

// Cost 4 is the bcrypt minimum; production cost would slow this file down
// by seconds per case.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(4)
}

func TestHashAndVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "secret1" {
		t.Fatal("Hash() returned the plaintext")
	}

	if err := ps.Verify(hash, "secret1"); err != nil {
		t.Errorf("Verify() with correct password: %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, _ := ps.Hash("secret1")

	if err := ps.Verify(hash, "wrong-password"); err == nil {
		t.Fatal("Verify() should fail for a wrong password")
	}
}

func TestHash_SamePasswordDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	// bcrypt salts internally, so two hashes of one password differ.
	h1, _ := ps.Hash("secret1")
	h2, _ := ps.Hash("secret1")

	if h1 == h2 {
		t.Error("Hash() produced identical output twice; salt missing?")
	}
}

func TestHash_TooLong(t *testing.T) {
	ps := newTestPasswordService()

	_, err := ps.Hash(strings.Repeat("a", 73))
	if err == nil {
		t.Fatal("Hash() should reject passwords over 72 bytes")
	}
}

func TestNewPasswordServiceWithCost_EnforcesFloor(t *testing.T) {
	ps := NewPasswordServiceWithCost(4)
	if ps.cost < 10 {
		t.Errorf("cost = %d, want at least 10", ps.cost)
	}
}

func TestVerify_GarbageHash(t *testing.T) {
	ps := newTestPasswordService()

	if err := ps.Verify("not-a-bcrypt-hash", "whatever"); err == nil {
		t.Fatal("Verify() should fail on a malformed hash")
	}
}
