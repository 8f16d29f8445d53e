package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"surplus-saver-api/internal/config"
	"surplus-saver-api/internal/model"
)

func reportConfig() config.ReportConfig {
	return config.ReportConfig{
		RetryCount: 3,
		RetryDelay: time.Millisecond,
		QueueSize:  4,
	}
}

// waitForReport polls until the report leaves the pending state.
func waitForReport(t *testing.T, store *fakeStore, id string) model.Report {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		report, err := store.GetReport(context.Background(), id)
		if err != nil {
			t.Fatalf("get report: %v", err)
		}
		if report.Status != model.ReportStatusPending {
			return report
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("report %s still pending", id)
	return model.Report{}
}

func TestReportService_Generate(t *testing.T) {
	t.Parallel()

	t.Run("completes with store stats", func(t *testing.T) {
		store := newFakeStore()
		seller := store.addUser(model.User{Role: model.RoleStore})
		store.addBag(model.SurpriseBag{
			StoreID: seller.ID, OriginalPrice: 10000, DiscountPrice: 7000,
			Quantity: 5, IsActive: true,
		})

		svc := NewReportService(store, store, reportConfig(), testClock())
		svc.Start()
		defer svc.Stop()

		requested, err := svc.Request(context.Background(), seller.ID)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if requested.Status != model.ReportStatusPending {
			t.Fatalf("expected pending, got %s", requested.Status)
		}

		report := waitForReport(t, store, requested.ID)
		if report.Status != model.ReportStatusCompleted {
			t.Fatalf("expected completed, got %s (%s)", report.Status, report.Error)
		}

		var payload struct {
			StoreID int64            `json:"store_id"`
			Stats   model.StoreStats `json:"stats"`
		}
		if err := json.Unmarshal(report.Payload, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.StoreID != seller.ID {
			t.Fatalf("expected store %d, got %d", seller.ID, payload.StoreID)
		}
		if payload.Stats.TotalBags != 1 || payload.Stats.ActiveBags != 1 {
			t.Fatalf("unexpected stats: %+v", payload.Stats)
		}
	})

	t.Run("retries transient failures", func(t *testing.T) {
		store := newFakeStore()
		seller := store.addUser(model.User{Role: model.RoleStore})
		store.statsErrs = 2 // fail twice, succeed on the third attempt

		svc := NewReportService(store, store, reportConfig(), testClock())
		svc.Start()
		defer svc.Stop()

		requested, err := svc.Request(context.Background(), seller.ID)
		if err != nil {
			t.Fatalf("request: %v", err)
		}

		report := waitForReport(t, store, requested.ID)
		if report.Status != model.ReportStatusCompleted {
			t.Fatalf("expected completed after retries, got %s (%s)", report.Status, report.Error)
		}
	})

	t.Run("stores the failure after retries run out", func(t *testing.T) {
		store := newFakeStore()
		seller := store.addUser(model.User{Role: model.RoleStore})
		store.statsErrs = 10 // more failures than retries

		svc := NewReportService(store, store, reportConfig(), testClock())
		svc.Start()
		defer svc.Stop()

		requested, err := svc.Request(context.Background(), seller.ID)
		if err != nil {
			t.Fatalf("request: %v", err)
		}

		report := waitForReport(t, store, requested.ID)
		if report.Status != model.ReportStatusFailed {
			t.Fatalf("expected failed, got %s", report.Status)
		}
		if report.Error == "" {
			t.Fatalf("expected the failure reason to be recorded")
		}
	})
}

func TestReportService_Get(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seller := store.addUser(model.User{Role: model.RoleStore})
	other := store.addUser(model.User{Role: model.RoleStore})

	svc := NewReportService(store, store, reportConfig(), testClock())

	requested, err := svc.Request(context.Background(), seller.ID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if _, err := svc.Get(context.Background(), requested.ID, seller.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := svc.Get(context.Background(), requested.ID, other.ID); err != model.ErrNotFound {
		t.Fatalf("expected ErrNotFound for other store, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "not-a-uuid", seller.ID); err != model.ErrNotFound {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}
