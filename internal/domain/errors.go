package domain

import "errors"

var (
	ErrShopNotFound        = errors.New("shop not found")
	ErrShopExists          = errors.New("shop already exists")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInvalidSessionToken = errors.New("invalid session token")
	ErrUnsupportedDBType   = errors.New("unsupported database type")
	ErrMissingParameter    = errors.New("missing required parameter")
)
