package dirtree

import "github.com/pkg/errors"

// Sentinel errors carrying the stable symbolic identities of spec §6.
// Callers recover the identity with errors.Is; call sites wrap one of
// these with errors.Wrapf to attach the offending path for humans
// reading a log, without losing the identity for errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid path")
	ErrNotFound        = errors.New("no such directory")
	ErrAlreadyExists   = errors.New("directory already exists")
	ErrNotEmpty        = errors.New("directory not empty")
	ErrBusy            = errors.New("operation not permitted on root")
	ErrIllegalMove     = errors.New("cannot move a directory into itself or its own descendant")
)
