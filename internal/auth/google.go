package auth

import (
	"context"
	"log"

	"google.golang.org/api/idtoken"
)

// GoogleVerifier validates Google Sign-In ID tokens against this
// application's registered client ID and extracts the verified email claim.
type GoogleVerifier struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		validate: idtoken.Validate,
	}
}

// VerifyCredential returns the token's verified email. Any failure — bad
// signature, wrong audience, expired token, missing email claim — collapses
// to ErrGoogleAuth.
func (g *GoogleVerifier) VerifyCredential(ctx context.Context, credential string) (string, error) {
	payload, err := g.validate(ctx, credential, g.clientID)
	if err != nil {
		log.Printf("google token verification failed: %v", err)
		return "", ErrGoogleAuth
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return "", ErrGoogleAuth
	}

	return email, nil
}
