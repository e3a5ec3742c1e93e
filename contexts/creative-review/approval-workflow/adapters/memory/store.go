package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"
	"creativehub/contexts/creative-review/approval-workflow/domain/services"
	"creativehub/contexts/creative-review/approval-workflow/ports"

	"github.com/google/uuid"
)

const DefaultLockTimeout = 3 * time.Second

type Store struct {
	mu sync.RWMutex

	requests map[string]entities.CreativeRequest
	history  map[string][]entities.HistoryEntry

	locksMu     sync.Mutex
	locks       map[string]*requestLock
	lockTimeout time.Duration
}

// requestLock is a one-slot semaphore shared by everyone holding or waiting
// on the same id. The entry is dropped once refs reaches zero.
type requestLock struct {
	slot chan struct{}
	refs int
}

func NewStore(seed []entities.CreativeRequest) *Store {
	requests := make(map[string]entities.CreativeRequest, len(seed))
	for _, item := range seed {
		requests[item.RequestID] = item
	}
	return &Store{
		requests:    requests,
		history:     make(map[string][]entities.HistoryEntry),
		locks:       make(map[string]*requestLock),
		lockTimeout: DefaultLockTimeout,
	}
}

// SetLockTimeout bounds how long WithLock waits for another holder of the same id.
func (s *Store) SetLockTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	s.locksMu.Lock()
	s.lockTimeout = timeout
	s.locksMu.Unlock()
}

func (s *Store) CreateRequest(_ context.Context, request entities.CreativeRequest) error {
	if !services.IsInitialState(request.State()) {
		return fmt.Errorf("%w: requests must start in new/admin", domainerrors.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[request.RequestID]; exists {
		return domainerrors.ErrDuplicateRequest
	}
	s.requests[request.RequestID] = request
	return nil
}

func (s *Store) GetRequest(_ context.Context, requestID string) (entities.CreativeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.requests[strings.TrimSpace(requestID)]
	if !exists {
		return entities.CreativeRequest{}, domainerrors.ErrRequestNotFound
	}
	return item, nil
}

func (s *Store) ListRequests(_ context.Context, filter ports.RequestFilter) ([]entities.CreativeRequest, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	reviewedBy := strings.TrimSpace(filter.ReviewedBy)
	items := make([]entities.CreativeRequest, 0, len(s.requests))
	for _, request := range s.requests {
		if filter.Status != "" && request.Status != filter.Status {
			continue
		}
		if filter.ApprovalStage != "" && request.ApprovalStage != filter.ApprovalStage {
			continue
		}
		if id := strings.TrimSpace(filter.AdvertiserID); id != "" && request.AdvertiserID != id {
			continue
		}
		if id := strings.TrimSpace(filter.PublisherID); id != "" && request.PublisherID != id {
			continue
		}
		if search != "" && !matchesSearch(request, search) {
			continue
		}
		if reviewedBy != "" && !s.reviewedByLocked(request.RequestID, reviewedBy) {
			continue
		}
		items = append(items, request)
	}

	sortRequests(items, filter.SortBy, filter.Order)

	total := len(items)
	start := filter.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	page := make([]entities.CreativeRequest, end-start)
	copy(page, items[start:end])
	return page, total, nil
}

func (s *Store) ListHistory(_ context.Context, requestID string) ([]entities.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requestID = strings.TrimSpace(requestID)
	if _, exists := s.requests[requestID]; !exists {
		return nil, domainerrors.ErrRequestNotFound
	}
	items := append([]entities.HistoryEntry(nil), s.history[requestID]...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) WithLock(
	ctx context.Context,
	requestID string,
	fn func(ctx context.Context, tx ports.LockedRequest) error,
) error {
	requestID = strings.TrimSpace(requestID)
	release, err := s.acquire(ctx, requestID)
	if err != nil {
		return err
	}
	defer release()

	current, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}

	tx := &lockedRequest{current: current}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	// A caller that gave up before commit leaves nothing behind.
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.saved != nil {
		s.requests[requestID] = *tx.saved
	}
	if len(tx.entries) > 0 {
		s.history[requestID] = append(s.history[requestID], tx.entries...)
	}
	return nil
}

func (s *Store) acquire(ctx context.Context, requestID string) (func(), error) {
	s.locksMu.Lock()
	lock, ok := s.locks[requestID]
	if !ok {
		lock = &requestLock{slot: make(chan struct{}, 1)}
		s.locks[requestID] = lock
	}
	lock.refs++
	timeout := s.lockTimeout
	s.locksMu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case lock.slot <- struct{}{}:
		return func() {
			<-lock.slot
			s.unref(requestID, lock)
		}, nil
	case <-timer.C:
		s.unref(requestID, lock)
		return nil, fmt.Errorf("%w: lock wait on %s exceeded %s", domainerrors.ErrTransientStore, requestID, timeout)
	case <-ctx.Done():
		s.unref(requestID, lock)
		return nil, ctx.Err()
	}
}

func (s *Store) unref(requestID string, lock *requestLock) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock.refs--
	if lock.refs == 0 && s.locks[requestID] == lock {
		delete(s.locks, requestID)
	}
}

// lockEntries reports how many ids currently have a lock entry.
func (s *Store) lockEntries() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}

func (s *Store) reviewedByLocked(requestID string, actorID string) bool {
	for _, entry := range s.history[requestID] {
		if entry.ActorID == actorID {
			return true
		}
	}
	return false
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// lockedRequest buffers writes until the callback returns.
type lockedRequest struct {
	current entities.CreativeRequest
	saved   *entities.CreativeRequest
	entries []entities.HistoryEntry
}

func (t *lockedRequest) Current() entities.CreativeRequest {
	if t.saved != nil {
		return *t.saved
	}
	return t.current
}

func (t *lockedRequest) Save(_ context.Context, request entities.CreativeRequest) error {
	if request.RequestID != t.current.RequestID {
		return fmt.Errorf("%w: locked request %s cannot save %s", domainerrors.ErrValidation, t.current.RequestID, request.RequestID)
	}
	item := request
	t.saved = &item
	return nil
}

func (t *lockedRequest) AppendHistory(_ context.Context, entry entities.HistoryEntry) error {
	if entry.RequestID != t.current.RequestID {
		return fmt.Errorf("%w: history entry for %s appended under lock on %s", domainerrors.ErrValidation, entry.RequestID, t.current.RequestID)
	}
	t.entries = append(t.entries, entry)
	return nil
}

func matchesSearch(request entities.CreativeRequest, needle string) bool {
	for _, field := range []string{
		request.RequestID,
		request.OfferName,
		request.AdvertiserName,
		request.PublisherID,
		request.CreativeType,
		request.AdminComments,
		request.AdvertiserComments,
	} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func sortRequests(items []entities.CreativeRequest, by ports.SortField, order ports.SortOrder) {
	asc := order == ports.SortAsc
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch by {
		case ports.SortByPriority:
			ra, rb := entities.PriorityRank(a.Priority), entities.PriorityRank(b.Priority)
			if ra != rb {
				if asc {
					return ra < rb
				}
				return ra > rb
			}
		case ports.SortByAdvertiserName:
			na, nb := strings.ToLower(a.AdvertiserName), strings.ToLower(b.AdvertiserName)
			if na != nb {
				if asc {
					return na < nb
				}
				return na > nb
			}
		default:
			if !a.SubmittedAt.Equal(b.SubmittedAt) {
				if asc {
					return a.SubmittedAt.Before(b.SubmittedAt)
				}
				return a.SubmittedAt.After(b.SubmittedAt)
			}
		}
		return a.RequestID < b.RequestID
	})
}
