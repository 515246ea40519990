package errors

import "errors"

var (
	ErrConfig     = errors.New("invalid configuration")
	ErrGateway    = errors.New("embedding gateway failed")
	ErrProjection = errors.New("invalid projection input")
	ErrStore      = errors.New("store failure")
	ErrInvalid    = errors.New("invalid")
	ErrNotFound   = errors.New("not found")
)

func IsConfig(err error) bool {
	return errors.Is(err, ErrConfig)
}

func IsGateway(err error) bool {
	return errors.Is(err, ErrGateway)
}

func IsProjection(err error) bool {
	return errors.Is(err, ErrProjection)
}

func IsStore(err error) bool {
	return errors.Is(err, ErrStore)
}
