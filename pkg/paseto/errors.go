package pasetotoken

type ErrConfig struct{ Msg string }

func (e ErrConfig) Error() string { return "paseto: " + e.Msg }

// ErrInvalidToken wraps every reason a presented token is rejected.
type ErrInvalidToken struct{ Err error }

func (e ErrInvalidToken) Error() string { return "paseto: invalid token: " + e.Err.Error() }
func (e ErrInvalidToken) Unwrap() error { return e.Err }
