package models

import "github.com/pkg/errors"

var (
	// ErrNotFound is the root of every lookup miss.
	ErrNotFound     = errors.New("not found")
	ErrMealNotFound = errors.Wrap(ErrNotFound, "meal")
	ErrFoodNotFound = errors.Wrap(ErrNotFound, "food")
)
