package repository

import "errors"

var (
	ErrNotFound         = errors.New("entity not found")
	ErrAlreadyExists    = errors.New("entity already exists")
	ErrUpdateFailed     = errors.New("update failed")
	ErrDeleteFailed     = errors.New("delete failed")
	ErrOptimisticLock   = errors.New("optimistic lock conflict: data was modified by another process")
	ErrQuotaExhausted   = errors.New("no free active offer slot for user")
	ErrImageLimit       = errors.New("image limit reached for offer")
	ErrConnectionFailed = errors.New("database connection failed")
)
