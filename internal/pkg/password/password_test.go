package password

import (
	"errors"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("p@ss")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "" {
		t.Fatalf("expected non-empty hash")
	}
	if hash == "p@ss" {
		t.Fatalf("hash must not equal plaintext")
	}

	ok, err := Verify("p@ss", hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected original plaintext to verify")
	}
}

func TestVerifyMismatch(t *testing.T) {
	hash, err := Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := Verify("battery staple", hash)
	if err != nil {
		t.Fatalf("mismatch must not be an error: %v", err)
	}
	if ok {
		t.Fatalf("expected different plaintext to fail verification")
	}
}

func TestHashEmptyPassword(t *testing.T) {
	if _, err := Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	_, err := Verify("whatever", "not-a-bcrypt-hash")
	if !errors.Is(err, ErrHashFormat) {
		t.Fatalf("expected ErrHashFormat, got %v", err)
	}
}

func TestHashNotReusedBetweenCalls(t *testing.T) {
	// bcrypt 每次加盐，两次哈希值不同但都能校验通过
	h1, err := Hash("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := Hash("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("expected salted hashes to differ")
	}
	for _, h := range []string{h1, h2} {
		ok, err := Verify("same", h)
		if err != nil || !ok {
			t.Fatalf("verify against %q: ok=%v err=%v", h, ok, err)
		}
	}
}
