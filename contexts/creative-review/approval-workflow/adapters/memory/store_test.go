package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"
	"creativehub/contexts/creative-review/approval-workflow/ports"
)

func listFixture() *Store {
	base := time.Date(2026, time.January, 10, 8, 0, 0, 0, time.UTC)
	return NewStore([]entities.CreativeRequest{
		{RequestID: "r-a", Status: entities.RequestStatusNew, ApprovalStage: entities.ApprovalStageAdmin, AdvertiserID: "adv-1", AdvertiserName: "Zeta", PublisherID: "pub-1", OfferName: "Summer Banner", Priority: entities.PriorityLow, SubmittedAt: base},
		{RequestID: "r-b", Status: entities.RequestStatusPending, ApprovalStage: entities.ApprovalStageAdvertiser, AdvertiserID: "adv-2", AdvertiserName: "alpha", PublisherID: "pub-1", OfferName: "Winter Video", Priority: entities.PriorityUrgent, SubmittedAt: base.Add(time.Hour)},
		{RequestID: "r-c", Status: entities.RequestStatusNew, ApprovalStage: entities.ApprovalStageAdmin, AdvertiserID: "adv-1", AdvertiserName: "Mid", PublisherID: "pub-2", OfferName: "Autumn banner", Priority: entities.PriorityHigh, SubmittedAt: base.Add(2 * time.Hour)},
	})
}

func ids(items []entities.CreativeRequest) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.RequestID)
	}
	return out
}

func equalIDs(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestListRequestsFiltersAndSorts(t *testing.T) {
	store := listFixture()
	ctx := context.Background()

	items, total, err := store.ListRequests(ctx, ports.RequestFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || !equalIDs(ids(items), "r-c", "r-b", "r-a") {
		t.Fatalf("expected newest first, got %v (total %d)", ids(items), total)
	}

	items, _, _ = store.ListRequests(ctx, ports.RequestFilter{SortBy: ports.SortByPriority, Order: ports.SortDesc})
	if !equalIDs(ids(items), "r-b", "r-c", "r-a") {
		t.Fatalf("expected priority rank order, got %v", ids(items))
	}

	items, _, _ = store.ListRequests(ctx, ports.RequestFilter{SortBy: ports.SortByAdvertiserName, Order: ports.SortAsc})
	if !equalIDs(ids(items), "r-b", "r-c", "r-a") {
		t.Fatalf("expected case-insensitive advertiser order, got %v", ids(items))
	}

	items, total, _ = store.ListRequests(ctx, ports.RequestFilter{Search: "BANNER"})
	if total != 2 || !equalIDs(ids(items), "r-c", "r-a") {
		t.Fatalf("expected search to match both banners, got %v", ids(items))
	}

	items, _, _ = store.ListRequests(ctx, ports.RequestFilter{Status: entities.RequestStatusNew, AdvertiserID: "adv-1", PublisherID: "pub-2"})
	if !equalIDs(ids(items), "r-c") {
		t.Fatalf("expected exact filters to narrow to r-c, got %v", ids(items))
	}

	items, total, _ = store.ListRequests(ctx, ports.RequestFilter{Offset: 1, Limit: 1})
	if total != 3 || !equalIDs(ids(items), "r-b") {
		t.Fatalf("expected second page of one, got %v (total %d)", ids(items), total)
	}

	items, total, _ = store.ListRequests(ctx, ports.RequestFilter{Offset: 10, Limit: 5})
	if total != 3 || len(items) != 0 {
		t.Fatalf("expected empty page past the end, got %v", ids(items))
	}
}

func TestListRequestsReviewedByUsesHistory(t *testing.T) {
	store := listFixture()
	ctx := context.Background()

	err := store.WithLock(ctx, "r-a", func(ctx context.Context, tx ports.LockedRequest) error {
		return tx.AppendHistory(ctx, entities.HistoryEntry{HistoryID: "h-1", RequestID: "r-a", ActorID: "admin-7", Operation: entities.OperationReject})
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	items, _, _ := store.ListRequests(ctx, ports.RequestFilter{ReviewedBy: "admin-7"})
	if !equalIDs(ids(items), "r-a") {
		t.Fatalf("expected only r-a reviewed by admin-7, got %v", ids(items))
	}
}

func TestWithLockDiscardsWritesOnError(t *testing.T) {
	store := listFixture()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithLock(ctx, "r-a", func(ctx context.Context, tx ports.LockedRequest) error {
		next := tx.Current()
		next.Status = entities.RequestStatusPending
		next.ApprovalStage = entities.ApprovalStageAdvertiser
		if err := tx.Save(ctx, next); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, entities.HistoryEntry{HistoryID: "h-x", RequestID: "r-a"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	stored, _ := store.GetRequest(ctx, "r-a")
	if stored.Status != entities.RequestStatusNew {
		t.Fatalf("expected status unchanged, got %s", stored.Status)
	}
	history, _ := store.ListHistory(ctx, "r-a")
	if len(history) != 0 {
		t.Fatalf("expected no history, got %d", len(history))
	}
}

func TestWithLockRefusesForeignWritesAndMissingRequests(t *testing.T) {
	store := listFixture()
	ctx := context.Background()

	err := store.WithLock(ctx, "r-a", func(ctx context.Context, tx ports.LockedRequest) error {
		other := tx.Current()
		other.RequestID = "r-b"
		return tx.Save(ctx, other)
	})
	if !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error for foreign save, got %v", err)
	}

	err = store.WithLock(ctx, "missing", func(context.Context, ports.LockedRequest) error { return nil })
	if !errors.Is(err, domainerrors.ErrRequestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLocksAreIndependentPerRequest(t *testing.T) {
	store := listFixture()
	store.SetLockTimeout(50 * time.Millisecond)
	ctx := context.Background()

	err := store.WithLock(ctx, "r-a", func(ctx context.Context, _ ports.LockedRequest) error {
		return store.WithLock(ctx, "r-b", func(context.Context, ports.LockedRequest) error { return nil })
	})
	if err != nil {
		t.Fatalf("expected distinct ids to lock independently, got %v", err)
	}

	err = store.WithLock(ctx, "r-a", func(ctx context.Context, _ ports.LockedRequest) error {
		return store.WithLock(ctx, "r-a", func(context.Context, ports.LockedRequest) error { return nil })
	})
	if !errors.Is(err, domainerrors.ErrTransientStore) {
		t.Fatalf("expected same-id wait to time out, got %v", err)
	}
}

func TestLockEntriesAreReleased(t *testing.T) {
	store := listFixture()
	store.SetLockTimeout(50 * time.Millisecond)
	ctx := context.Background()

	for _, id := range []string{"r-a", "r-b", "r-c"} {
		if err := store.WithLock(ctx, id, func(context.Context, ports.LockedRequest) error { return nil }); err != nil {
			t.Fatalf("lock %s failed: %v", id, err)
		}
	}
	_ = store.WithLock(ctx, "r-a", func(ctx context.Context, _ ports.LockedRequest) error {
		return store.WithLock(ctx, "r-a", func(context.Context, ports.LockedRequest) error { return nil })
	})
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_ = store.WithLock(ctx, "r-b", func(context.Context, ports.LockedRequest) error {
		return store.WithLock(cancelled, "r-b", func(context.Context, ports.LockedRequest) error { return nil })
	})
	_ = store.WithLock(ctx, "missing", func(context.Context, ports.LockedRequest) error { return nil })

	if got := store.lockEntries(); got != 0 {
		t.Fatalf("expected no lock entries after all holders left, got %d", got)
	}
}

func TestHistoryKeepsInsertionOrderForEqualTimestamps(t *testing.T) {
	store := listFixture()
	ctx := context.Background()
	at := time.Date(2026, time.January, 11, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"h-2", "h-1", "h-3"} {
		id := id
		if err := store.WithLock(ctx, "r-b", func(ctx context.Context, tx ports.LockedRequest) error {
			return tx.AppendHistory(ctx, entities.HistoryEntry{HistoryID: id, RequestID: "r-b", CreatedAt: at})
		}); err != nil {
			t.Fatalf("append %s failed: %v", id, err)
		}
	}
	history, _ := store.ListHistory(ctx, "r-b")
	if len(history) != 3 || history[0].HistoryID != "h-2" || history[2].HistoryID != "h-3" {
		t.Fatalf("expected insertion order, got %+v", history)
	}

	if _, err := store.ListHistory(ctx, "missing"); !errors.Is(err, domainerrors.ErrRequestNotFound) {
		t.Fatalf("expected not found for unknown request, got %v", err)
	}
}

func TestCreateRequestRequiresInitialState(t *testing.T) {
	store := NewStore(nil)
	err := store.CreateRequest(context.Background(), entities.CreativeRequest{RequestID: "r-x", Status: entities.RequestStatusApproved, ApprovalStage: entities.ApprovalStageCompleted})
	if !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
