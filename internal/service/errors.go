package service

import "errors"

var (
	ErrStageNotInType = errors.New("stage does not belong to the plot's construction type")
	ErrInvalidInput   = errors.New("invalid input")
)
