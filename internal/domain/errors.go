package domain

import "errors"

var (
	// store unreadable or corrupt; fatal for that account only
	ErrConfiguration = errors.New("credential configuration error")

	ErrCredentialRejected = errors.New("credential rejected")
	ErrNoNickname         = errors.New("no nickname given")

	// a credential must carry both halves of the token pair or neither
	ErrInvalidCredential = errors.New("credential has a partial token pair")
	ErrInvalidAccountID  = errors.New("invalid account id")
)
