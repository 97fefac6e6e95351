package domain

import "errors"

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrAlreadyReserved   = errors.New("seat is already reserved")
	ErrInvalidState      = errors.New("invalid seat state")
	ErrSeatNotFound      = errors.New("seat not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrDuplicateSeat     = errors.New("a seat already exists at this position")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrMapNotFound       = errors.New("seat map not found")
	ErrEditConflict      = errors.New("edit conflict")
)
