package errors

import "fmt"

var (
	ErrSendFailed           = fmt.Errorf("completion request failed")
	ErrEmptyMessage         = fmt.Errorf("message is empty")
	ErrUnauthenticated      = fmt.Errorf("no authenticated session")
	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrNoSession            = fmt.Errorf("no cached session")
	ErrInvalidCredentials   = fmt.Errorf("invalid credentials")
	ErrInvalidLoginRequest  = fmt.Errorf("invalid login request")
)
