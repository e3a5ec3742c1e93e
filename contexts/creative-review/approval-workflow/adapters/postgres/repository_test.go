package postgresadapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"
	"creativehub/contexts/creative-review/approval-workflow/ports"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var requestColumns = []string{
	"request_id", "status", "approval_stage", "offer_id", "offer_name", "advertiser_id", "advertiser_name",
	"publisher_id", "priority", "creative_type", "creative_count", "admin_status", "admin_approved_at",
	"admin_comments", "advertiser_status", "advertiser_responded_at", "advertiser_comments", "submitted_at", "updated_at",
}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open failed: %v", err)
	}
	return NewRepository(db, 1500*time.Millisecond, nil), mock
}

func newRequestRow(mock sqlmock.Sqlmock, status entities.RequestStatus, stage entities.ApprovalStage) *sqlmock.Rows {
	submitted := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	return mock.NewRows(requestColumns).AddRow(
		"r-1", string(status), string(stage), "offer-1", "Spring Sale", "adv-1", "Acme",
		"pub-1", "high", "banner", 2, "", nil,
		"", "", nil, "", submitted, submitted,
	)
}

func TestWithLockCommitsSaveAndHistoryTogether(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout = '1500ms'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "creative_requests" WHERE request_id = .* FOR UPDATE`).
		WillReturnRows(newRequestRow(mock, entities.RequestStatusNew, entities.ApprovalStageAdmin))
	mock.ExpectExec(`UPDATE "creative_requests" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "creative_request_history"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WithLock(context.Background(), "r-1", func(ctx context.Context, tx ports.LockedRequest) error {
		current := tx.Current()
		if current.Status != entities.RequestStatusNew || current.OfferName != "Spring Sale" {
			t.Fatalf("unexpected locked row: %+v", current)
		}
		next := current
		next.Status = entities.RequestStatusPending
		next.ApprovalStage = entities.ApprovalStageAdvertiser
		next.UpdatedAt = now
		if err := tx.Save(ctx, next); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, entities.HistoryEntry{
			HistoryID: "h-1", RequestID: "r-1", Operation: entities.OperationApprove,
			FromStatus: entities.RequestStatusNew, FromStage: entities.ApprovalStageAdmin,
			ToStatus: entities.RequestStatusPending, ToStage: entities.ApprovalStageAdvertiser,
			ActorID: "admin-1", ActorRole: entities.ActorRoleAdmin, CreatedAt: now,
		})
	})
	if err != nil {
		t.Fatalf("with lock failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithLockRollsBackWhenCallbackFails(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(newRequestRow(mock, entities.RequestStatusApproved, entities.ApprovalStageCompleted))
	mock.ExpectRollback()

	err := repo.WithLock(context.Background(), "r-1", func(context.Context, ports.LockedRequest) error {
		return domainerrors.ErrInvalidStateTransition
	})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithLockMapsLockTimeoutToTransient(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})
	mock.ExpectRollback()

	err := repo.WithLock(context.Background(), "r-1", func(context.Context, ports.LockedRequest) error {
		t.Fatalf("callback must not run without the lock")
		return nil
	})
	if !errors.Is(err, domainerrors.ErrTransientStore) || !domainerrors.IsRetryable(err) {
		t.Fatalf("expected retryable transient error, got %v", err)
	}
}

func TestWithLockMissingRequest(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(mock.NewRows(requestColumns))
	mock.ExpectRollback()

	err := repo.WithLock(context.Background(), "missing", func(context.Context, ports.LockedRequest) error { return nil })
	if !errors.Is(err, domainerrors.ErrRequestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetRequestTranslatesNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT \* FROM "creative_requests" WHERE request_id = `).WillReturnRows(mock.NewRows(requestColumns))

	if _, err := repo.GetRequest(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrRequestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateRequestMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "creative_requests"`).WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateRequest(context.Background(), entities.CreativeRequest{
		RequestID: "r-1", Status: entities.RequestStatusNew, ApprovalStage: entities.ApprovalStageAdmin,
		OfferID: "offer-1", AdvertiserID: "adv-1", PublisherID: "pub-1", Priority: entities.PriorityLow,
		SubmittedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, domainerrors.ErrDuplicateRequest) {
		t.Fatalf("expected duplicate request, got %v", err)
	}

	err = repo.CreateRequest(context.Background(), entities.CreativeRequest{RequestID: "r-2", Status: entities.RequestStatusPending, ApprovalStage: entities.ApprovalStageAdvertiser})
	if !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected non-initial state to be refused, got %v", err)
	}
}

func TestListRequestsAppliesFiltersAndPriorityOrder(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "creative_requests" WHERE status = .* AND advertiser_id = .* ILIKE .* EXISTS \(SELECT 1 FROM creative_request_history`).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`SELECT \* FROM "creative_requests" WHERE .* ORDER BY CASE priority WHEN 'urgent' THEN 4 .* END DESC,request_id ASC LIMIT .* OFFSET`).
		WillReturnRows(newRequestRow(mock, entities.RequestStatusNew, entities.ApprovalStageAdmin))

	items, total, err := repo.ListRequests(context.Background(), ports.RequestFilter{
		Status:       entities.RequestStatusNew,
		AdvertiserID: "adv-1",
		Search:       "50%_off",
		ReviewedBy:   "admin-1",
		SortBy:       ports.SortByPriority,
		Order:        ports.SortDesc,
		Offset:       5,
		Limit:        5,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 7 || len(items) != 1 || items[0].RequestID != "r-1" {
		t.Fatalf("unexpected list result: total=%d items=%+v", total, items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListHistoryDistinguishesEmptyFromMissing(t *testing.T) {
	repo, mock := newMockRepository(t)
	historyColumns := []string{"history_id", "request_id", "operation", "from_status", "from_stage", "to_status", "to_stage", "actor_id", "actor_role", "reason", "created_at"}

	mock.ExpectQuery(`SELECT \* FROM "creative_request_history" WHERE request_id = .* ORDER BY created_at ASC,seq ASC`).
		WillReturnRows(mock.NewRows(historyColumns))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "creative_requests"`).WillReturnRows(mock.NewRows([]string{"count"}).AddRow(1))

	entries, err := repo.ListHistory(context.Background(), "r-1")
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty history, got %v, %v", entries, err)
	}

	mock.ExpectQuery(`creative_request_history`).WillReturnRows(mock.NewRows(historyColumns))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "creative_requests"`).WillReturnRows(mock.NewRows([]string{"count"}).AddRow(0))
	if _, err := repo.ListHistory(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrRequestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTranslateError(t *testing.T) {
	cases := []struct {
		in   error
		want error
	}{
		{gorm.ErrRecordNotFound, domainerrors.ErrRequestNotFound},
		{&pgconn.PgError{Code: "57014"}, domainerrors.ErrTransientStore},
		{&pgconn.PgError{Code: "40P01"}, domainerrors.ErrTransientStore},
		{&pgconn.PgError{Code: "08006"}, domainerrors.ErrTransientStore},
		{context.Canceled, context.Canceled},
	}
	for _, tc := range cases {
		if got := translateError(tc.in); !errors.Is(got, tc.want) {
			t.Fatalf("translate(%v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
	plain := errors.New("syntax error")
	if got := translateError(&pgconn.PgError{Code: "42601"}); errors.Is(got, domainerrors.ErrTransientStore) {
		t.Fatalf("syntax errors must not be retryable")
	}
	if got := translateError(plain); got != plain {
		t.Fatalf("unknown errors must pass through, got %v", got)
	}
}
