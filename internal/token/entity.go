package token

import "github.com/golang-jwt/jwt/v5"

// Purpose scopes a token to one workflow.
type Purpose string

const (
	// PurposeAccess is the general bearer credential; it carries no purpose salt.
	PurposeAccess        Purpose = ""
	PurposeEmailConfirm  Purpose = "email-confirm"
	PurposePasswordReset Purpose = "password-reset"
)

func (p Purpose) String() string {
	if p == PurposeAccess {
		return "access"
	}
	return string(p)
}

// Claims is the signed payload: subject, purpose tag, issue time and expiry.
type Claims struct {
	jwt.RegisteredClaims
	Purpose Purpose `json:"purpose,omitempty"`
}
