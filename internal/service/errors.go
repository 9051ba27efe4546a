package service

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyBooked   = errors.New("slot is already booked")
	ErrNotCancelable   = errors.New("booking is not cancelable")
	ErrInvalidArgument = errors.New("invalid argument")
)
