package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"
	"creativehub/contexts/creative-review/approval-workflow/domain/services"
	"creativehub/contexts/creative-review/approval-workflow/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultLockTimeout = 3 * time.Second

const priorityRankExpr = "CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type Repository struct {
	db          *gorm.DB
	lockTimeout time.Duration
	logger      *slog.Logger
}

func NewRepository(db *gorm.DB, lockTimeout time.Duration, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Repository{
		db:          db,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

func (r *Repository) CreateRequest(ctx context.Context, request entities.CreativeRequest) error {
	if !services.IsInitialState(request.State()) {
		return fmt.Errorf("%w: requests must start in new/admin", domainerrors.ErrValidation)
	}
	row := creativeRequestModelFromEntity(request)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateRequest
		}
		return translateError(err)
	}
	return nil
}

func (r *Repository) GetRequest(ctx context.Context, requestID string) (entities.CreativeRequest, error) {
	var row creativeRequestModel
	err := r.db.WithContext(ctx).
		Where("request_id = ?", strings.TrimSpace(requestID)).
		First(&row).
		Error
	if err != nil {
		return entities.CreativeRequest{}, translateError(err)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListRequests(ctx context.Context, filter ports.RequestFilter) ([]entities.CreativeRequest, int, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	query := r.filtered(ctx, filter).
		Order(orderClause(filter.SortBy, filter.Order)).
		Order("request_id ASC")
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []creativeRequestModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	items := make([]entities.CreativeRequest, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, int(total), nil
}

func (r *Repository) filtered(ctx context.Context, filter ports.RequestFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&creativeRequestModel{})
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if filter.ApprovalStage != "" {
		tx = tx.Where("approval_stage = ?", string(filter.ApprovalStage))
	}
	if id := strings.TrimSpace(filter.AdvertiserID); id != "" {
		tx = tx.Where("advertiser_id = ?", id)
	}
	if id := strings.TrimSpace(filter.PublisherID); id != "" {
		tx = tx.Where("publisher_id = ?", id)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(search) + "%"
		tx = tx.Where(
			"(request_id ILIKE @p OR offer_name ILIKE @p OR advertiser_name ILIKE @p OR publisher_id ILIKE @p "+
				"OR creative_type ILIKE @p OR admin_comments ILIKE @p OR advertiser_comments ILIKE @p)",
			map[string]any{"p": pattern},
		)
	}
	if actor := strings.TrimSpace(filter.ReviewedBy); actor != "" {
		tx = tx.Where(
			"EXISTS (SELECT 1 FROM creative_request_history h WHERE h.request_id = creative_requests.request_id AND h.actor_id = ?)",
			actor,
		)
	}
	return tx
}

func orderClause(by ports.SortField, order ports.SortOrder) string {
	direction := "DESC"
	if order == ports.SortAsc {
		direction = "ASC"
	}
	switch by {
	case ports.SortByPriority:
		return priorityRankExpr + " " + direction
	case ports.SortByAdvertiserName:
		return "LOWER(advertiser_name) " + direction
	default:
		return "submitted_at " + direction
	}
}

func (r *Repository) ListHistory(ctx context.Context, requestID string) ([]entities.HistoryEntry, error) {
	requestID = strings.TrimSpace(requestID)
	var rows []historyModel
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Order("seq ASC").
		Find(&rows).
		Error; err != nil {
		return nil, translateError(err)
	}
	if len(rows) == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&creativeRequestModel{}).Where("request_id = ?", requestID).Count(&count).Error; err != nil {
			return nil, translateError(err)
		}
		if count == 0 {
			return nil, domainerrors.ErrRequestNotFound
		}
	}

	items := make([]entities.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// WithLock runs fn inside one transaction holding SELECT ... FOR UPDATE on
// the request row. lock_timeout bounds the wait for a competing holder.
func (r *Repository) WithLock(
	ctx context.Context,
	requestID string,
	fn func(ctx context.Context, tx ports.LockedRequest) error,
) error {
	requestID = strings.TrimSpace(requestID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())).Error; err != nil {
			return err
		}

		var row creativeRequestModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ?", requestID).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrRequestNotFound
			}
			return err
		}
		return fn(ctx, &lockedRow{tx: tx, current: row.toEntity()})
	})
	if err != nil {
		translated := translateError(err)
		if errors.Is(translated, domainerrors.ErrTransientStore) {
			r.logger.Warn("creative request lock failed",
				"event", "creative_request_lock_failed",
				"module", "creative-review/approval-workflow",
				"layer", "adapter",
				"request_id", requestID,
				"lock_timeout_ms", r.lockTimeout.Milliseconds(),
				"error", err.Error(),
			)
		}
		return translated
	}
	return nil
}

type lockedRow struct {
	tx      *gorm.DB
	current entities.CreativeRequest
}

func (l *lockedRow) Current() entities.CreativeRequest {
	return l.current
}

func (l *lockedRow) Save(ctx context.Context, request entities.CreativeRequest) error {
	if request.RequestID != l.current.RequestID {
		return fmt.Errorf("%w: locked request %s cannot save %s", domainerrors.ErrValidation, l.current.RequestID, request.RequestID)
	}
	result := l.tx.WithContext(ctx).
		Model(&creativeRequestModel{}).
		Where("request_id = ?", l.current.RequestID).
		Updates(workflowUpdates(request))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRequestNotFound
	}
	l.current = request
	return nil
}

func (l *lockedRow) AppendHistory(ctx context.Context, entry entities.HistoryEntry) error {
	if entry.RequestID != l.current.RequestID {
		return fmt.Errorf("%w: history entry for %s appended under lock on %s", domainerrors.ErrValidation, entry.RequestID, l.current.RequestID)
	}
	row := historyModelFromEntity(entry)
	if err := l.tx.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate history id %s", domainerrors.ErrValidation, entry.HistoryID)
		}
		return err
	}
	return nil
}
