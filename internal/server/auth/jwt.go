// Package auth mints and checks document unlock tickets: short-lived HS256
// JWTs proving that the protection gate already granted one document.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const ticketAudience = "document-unlock"

// Claims are the registered claims plus the unlocked document id.
type Claims struct {
	jwt.RegisteredClaims
	DocumentID int64 `json:"doc"`
}

// GenerateUnlockTicket signs a ticket for documentID that expires after
// validityDuration.
func GenerateUnlockTicket(documentID int64, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(documentID, 10),
			Audience:  jwt.ClaimStrings{ticketAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		DocumentID: documentID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetDocumentIDFromTicket validates the ticket and returns the document id
// it unlocks.
func GetDocumentIDFromTicket(tokenString string, secretKey []byte) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(ticketAudience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, common.ErrUnlockTicketExpired
		}
		return 0, common.ErrInvalidToken
	}

	if !token.Valid {
		return 0, common.ErrInvalidToken
	}

	return claims.DocumentID, nil
}

// TicketUnlocks reports whether tokenString is a valid ticket for documentID.
func TicketUnlocks(tokenString string, secretKey []byte, documentID int64) bool {
	id, err := GetDocumentIDFromTicket(tokenString, secretKey)
	return err == nil && id == documentID
}
