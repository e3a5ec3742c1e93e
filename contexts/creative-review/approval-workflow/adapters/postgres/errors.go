package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the repository maps onto the workflow taxonomy.
const (
	codeUniqueViolation      = "23505"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeAdminShutdown        = "57P01"
	codeTooManyConnections   = "53300"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// translateError leaves workflow errors and caller cancellation untouched and
// turns lock waits and connectivity problems into ErrTransientStore.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domainerrors.ErrRequestNotFound),
		errors.Is(err, domainerrors.ErrInvalidStateTransition),
		errors.Is(err, domainerrors.ErrValidation),
		errors.Is(err, domainerrors.ErrDuplicateRequest),
		errors.Is(err, domainerrors.ErrTransientStore):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainerrors.ErrRequestNotFound
	case isTransient(err):
		return fmt.Errorf("%w: %v", domainerrors.ErrTransientStore, err)
	default:
		return err
	}
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeLockNotAvailable, codeQueryCanceled, codeSerializationFailure,
			codeDeadlockDetected, codeAdminShutdown, codeTooManyConnections:
			return true
		}
		// Class 08 is connection exception.
		return strings.HasPrefix(pgErr.Code, "08")
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
