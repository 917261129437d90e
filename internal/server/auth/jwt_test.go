package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateUnlockTicket(42, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateUnlockTicket error: %v", err)
	}

	got, err := GetDocumentIDFromTicket(tok, secret)
	if err != nil {
		t.Fatalf("GetDocumentIDFromTicket error: %v", err)
	}
	if got != 42 {
		t.Fatalf("document id mismatch: got %d want 42", got)
	}
	if !TicketUnlocks(tok, secret, 42) {
		t.Fatal("ticket should unlock its own document")
	}
	if TicketUnlocks(tok, secret, 43) {
		t.Fatal("ticket must not unlock another document")
	}
}

func TestGetDocumentIDFromTicket_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	tok, err := GenerateUnlockTicket(1, secret, -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateUnlockTicket error: %v", err)
	}

	_, err = GetDocumentIDFromTicket(tok, secret)
	if err != common.ErrUnlockTicketExpired {
		t.Fatalf("expected common.ErrUnlockTicketExpired, got %v", err)
	}
}

func TestGetDocumentIDFromTicket_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateUnlockTicket(2, []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateUnlockTicket error: %v", err)
	}

	_, err = GetDocumentIDFromTicket(tok, []byte("wrong-secret"))
	if err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestGetDocumentIDFromTicket_WrongAudience(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"something-else"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		DocumentID: 3,
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	if _, err := GetDocumentIDFromTicket(tok, secret); err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestGetDocumentIDFromTicket_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := GetDocumentIDFromTicket("not.a.jwt", []byte("k"))
	if err == nil {
		t.Fatalf("expected error for malformed token, got nil")
	}
}
