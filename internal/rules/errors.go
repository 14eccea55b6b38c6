package rules

import "errors"

// Configuration errors raised while loading rule definitions.
var (
	ErrUnknownOperator     = errors.New("unknown operator")
	ErrMalformedExpression = errors.New("malformed expression")
	ErrMalformedRule       = errors.New("malformed rule")
)
