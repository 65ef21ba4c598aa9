package service

import "errors"

var (
	ErrNodeNotFound       = errors.New("node not found")
	ErrDuplicateNode      = errors.New("node already registered")
	ErrNodeLimit          = errors.New("node limit reached")
	ErrInvalidAddress     = errors.New("invalid Solana address")
	ErrAccountLocked      = errors.New("account locked due to too many failed login attempts")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 8 characters and contain upper case, lower case and a digit")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidLinkCode    = errors.New("invalid or expired link code")
	ErrRefreshInProgress  = errors.New("a status refresh is already running for this user")
)
