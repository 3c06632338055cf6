package weibo

import "errors"

// Session errors, matched with errors.Is.
var (
	ErrNotLoggedIn         = errors.New("weibo account is not logged in")
	ErrCredentialsRequired = errors.New("username and password are required for password login")
	ErrLoginFailed         = errors.New("login failed")
	ErrQRGeneration        = errors.New("failed to generate login qr code")
	ErrQRExpired           = errors.New("qr code expired")
	ErrQRTimeout           = errors.New("qr login timed out, please try again")
	ErrQRLogin             = errors.New("qr login failed")
	ErrListPosts           = errors.New("failed to list posts")
	ErrDeleteRejected      = errors.New("delete failed")
	ErrBatchCancelled      = errors.New("batch cancelled before attempt")
	ErrNoCompleter         = errors.New("no llm completer configured")
)
