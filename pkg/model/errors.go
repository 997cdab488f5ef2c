package model

import "github.com/m-mizutani/goerr/v2"

var (
	ErrInvalidComponent    = goerr.New("invalid component")
	ErrDuplicateComponent  = goerr.New("duplicate component id")
	ErrComponentNotFound   = goerr.New("component not found")
	ErrInvalidLayout       = goerr.New("invalid layout")
	ErrLayoutNotFound      = goerr.New("layout not found")
	ErrInvalidProfile      = goerr.New("invalid profile")
	ErrProfileNotFound     = goerr.New("profile not found")
	ErrCollaboratorFailure = goerr.New("collaborator failure")
)
