package mailer

import (
	"fmt"
	"net/url"
	"strings"
)

// VerificationEmail builds the subject and body sent after registration.
func VerificationEmail(baseURL, name, token string) (string, string) {
	link := fmt.Sprintf("%s/api/v1/auth/verify?token=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(token))
	body := fmt.Sprintf("Hi %s,\n\nPlease confirm your email address by opening the link below:\n\n%s\n\nIf you did not sign up, ignore this email.\n", name, link)
	return "Verify your email address", body
}

// ResetEmail builds the subject and body for a password reset request.
func ResetEmail(baseURL, name, token string) (string, string) {
	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(token))
	body := fmt.Sprintf("Hi %s,\n\nUse the link below to choose a new password. It expires in one hour.\n\n%s\n\nReset token: %s\n", name, link, token)
	return "Reset your password", body
}
