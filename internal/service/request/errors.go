package request

import "errors"

var (
	ErrUnknownResource = errors.New("unknown access resource")
	ErrUnknownType     = errors.New("unknown resource type")
	ErrRender          = errors.New("could not render mail")
)
