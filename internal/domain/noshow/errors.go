package noshow

import "errors"

var (
	ErrRecordNotFound         = errors.New("no-show record not found")
	ErrDisputeAlreadyFiled    = errors.New("dispute already filed")
	ErrDisputeAlreadyResolved = errors.New("dispute already resolved")
	ErrNoDispute              = errors.New("no dispute filed")
)
