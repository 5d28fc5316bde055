package service

import (
	"errors"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/internal/infra"
	"github.com/footballcurrency/portal/internal/repository"
)

// DB is the handle services run queries and transactions against.
// *pgxpool.Pool satisfies it.
type DB interface {
	repository.DBTX
	infra.TxBeginner
}

// asAppError passes AppErrors through and wraps anything else as internal.
func asAppError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return domain.ErrInternal(msg, err)
}
