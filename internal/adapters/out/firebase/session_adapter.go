// internal/adapters/out/firebase/session_adapter.go
package firebase

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	fbauth "firebase.google.com/go/v4/auth"
)

// SessionAdapter implements usecase.Session over Firebase Auth ID tokens.
//
// The storefront hands the adapter the user's ID token on sign-in
// (SetIDToken) and clears it on sign-out (ClearToken); the adapter verifies
// tokens with Firebase and fires the registered transition callbacks, which
// the container wires to Reconciler.HandleSignIn / HandleSignOut.
type SessionAdapter struct {
	auth *fbauth.Client

	mu    sync.Mutex
	token string
	uid   string

	onSignIn  func(ctx context.Context)
	onSignOut func()
}

func NewSessionAdapter(client *fbauth.Client) *SessionAdapter {
	return &SessionAdapter{auth: client}
}

// OnTransition registers sign-in / sign-out callbacks. Either may be nil.
func (a *SessionAdapter) OnTransition(signIn func(ctx context.Context), signOut func()) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSignIn = signIn
	a.onSignOut = signOut
}

// SetIDToken verifies idToken and, when a signed-out adapter becomes
// signed-in, fires the sign-in transition.
func (a *SessionAdapter) SetIDToken(ctx context.Context, idToken string) error {
	if a == nil || a.auth == nil {
		return errors.New("firebase_session: auth client is nil")
	}

	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return errors.New("firebase_session: empty id token")
	}

	token, err := a.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return err
	}
	uid := strings.TrimSpace(token.UID)
	if uid == "" {
		return errors.New("firebase_session: invalid uid in token")
	}

	a.mu.Lock()
	wasSignedOut := a.token == ""
	a.token = idToken
	a.uid = uid
	signIn := a.onSignIn
	a.mu.Unlock()

	if wasSignedOut && signIn != nil {
		signIn(ctx)
	}
	return nil
}

// ClearToken drops the session and fires the sign-out transition.
func (a *SessionAdapter) ClearToken() {
	if a == nil {
		return
	}
	a.mu.Lock()
	wasSignedIn := a.token != ""
	a.token = ""
	a.uid = ""
	signOut := a.onSignOut
	a.mu.Unlock()

	if wasSignedIn && signOut != nil {
		signOut()
	}
}

// IsAuthenticated re-verifies the held token (expiry, revocation) so a stale
// session silently degrades to signed-out instead of failing syncs forever.
func (a *SessionAdapter) IsAuthenticated(ctx context.Context) bool {
	if a == nil || a.auth == nil {
		return false
	}

	a.mu.Lock()
	token := a.token
	a.mu.Unlock()
	if token == "" {
		return false
	}

	if _, err := a.auth.VerifyIDToken(ctx, token); err != nil {
		log.Printf("[firebase_session] token no longer valid, treating as signed out: %v", err)
		a.ClearToken()
		return false
	}
	return true
}

// UID returns the signed-in user's uid ("" when signed out).
func (a *SessionAdapter) UID() string {
	if a == nil {
		return ""
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.uid
}

// IDToken exposes the raw token for outbound authenticated calls
// (httpout.TokenSource).
func (a *SessionAdapter) IDToken(ctx context.Context) (string, error) {
	if a == nil {
		return "", nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token, nil
}
