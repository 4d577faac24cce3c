package services

import "errors"

var (
	ErrNotFound                  = errors.New("not found")
	ErrForbidden                 = errors.New("forbidden")
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrInvalidAmount             = errors.New("invalid amount")
	ErrPaymentNotCompleted       = errors.New("payment not completed")
	ErrWebhookVerificationFailed = errors.New("webhook verification failed")
)
