package password

import (
	"errors"
	"strings"
	"testing"
)

// cheap parameters keep the tests fast
var testParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(testParams)

	encoded, err := h.Hash("s3cret!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}

	ok, err := h.Verify("s3cret!", encoded)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("wrong", encoded)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestHasher_SaltsDiffer(t *testing.T) {
	h := NewHasher(testParams)
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Fatalf("two hashes of the same password should differ")
	}
}

func TestHasher_VerifyUsesStoredParams(t *testing.T) {
	old := NewHasher(testParams)
	encoded, _ := old.Hash("pw")

	current := NewHasher(Params{Memory: 2048, Iterations: 2, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	ok, err := current.Verify("pw", encoded)
	if err != nil || !ok {
		t.Fatalf("expected old hash to verify, ok=%v err=%v", ok, err)
	}
}

func TestHasher_MalformedHash(t *testing.T) {
	h := NewHasher(testParams)
	for _, bad := range []string{"", "plain", "$2a$10$bcrypt", "$argon2id$v=19$m=x$salt$key", "$argon2id$v=19$m=1,t=1,p=1$!!$!!"} {
		if _, err := h.Verify("pw", bad); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("%q: expected ErrMalformedHash, got %v", bad, err)
		}
	}
}
