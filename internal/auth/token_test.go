package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndDecode_Success(t *testing.T) {
	t.Parallel()

	codec, err := NewTokenCodec([]byte("super-secret"), 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec error: %v", err)
	}

	token, err := codec.Issue("johndoe", 30*time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	subject, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if subject != "johndoe" {
		t.Fatalf("subject = %q, want %q", subject, "johndoe")
	}
}

func TestIssue_DefaultTTL(t *testing.T) {
	t.Parallel()

	codec, err := NewTokenCodec([]byte("super-secret"), 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec error: %v", err)
	}

	// zero ttl falls back to the codec default and decodes fine right away
	token, err := codec.Issue("johndoe", 0)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := codec.Decode(token); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
}

func TestIssue_EmptySubject(t *testing.T) {
	t.Parallel()

	codec, err := NewTokenCodec([]byte("super-secret"), 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec error: %v", err)
	}
	if _, err := codec.Issue("  ", time.Minute); err == nil {
		t.Fatalf("expected error for blank subject")
	}
}

func TestDecode_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	codec, err := NewTokenCodec(secret, 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec error: %v", err)
	}

	expired := signToken(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{
		Subject:   "johndoe",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})

	if _, err := codec.Decode(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestDecode_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenCodec([]byte("right-secret"), 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec error: %v", err)
	}
	verifier, err := NewTokenCodec([]byte("wrong-secret"), 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec error: %v", err)
	}

	token, err := issuer.Issue("johndoe", time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := verifier.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestDecode_AlgorithmMismatch(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	codec, err := NewTokenCodec(secret, 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec error: %v", err)
	}

	// a token signed with the right secret but a different algorithm must
	// be rejected even though its signature checks out
	hs512 := signToken(t, jwt.SigningMethodHS512, secret, jwt.RegisteredClaims{
		Subject:   "johndoe",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	if _, err := codec.Decode(hs512); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestDecode_MissingSubject(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	codec, err := NewTokenCodec(secret, 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec error: %v", err)
	}

	noSubject := signToken(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	if _, err := codec.Decode(noSubject); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	codec, err := NewTokenCodec([]byte("super-secret"), 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec error: %v", err)
	}

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := codec.Decode(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Decode(%q) err = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestNewTokenCodec_EmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenCodec(nil, time.Minute); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func signToken(t *testing.T, method jwt.SigningMethod, secret []byte, claims jwt.RegisteredClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return signed
}
