package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"alphabit/internal/client/neynar"
	"alphabit/internal/client/thetanuts"
	"alphabit/internal/config"
	"alphabit/internal/models"
	"alphabit/internal/repository"
	"alphabit/internal/service"
)

// schedRepo implements just the Repository methods a cycle touches;
// anything else panics via the embedded nil interface.
type schedRepo struct {
	repository.Repository

	mu       sync.Mutex
	users    []models.User
	trades   map[string]*models.Trade
	expiring []int64
}

func (r *schedRepo) ListActiveUsersWithWallets(context.Context) ([]models.User, error) {
	return r.users, nil
}

func (r *schedRepo) GetTradeByTxHash(_ context.Context, txHash string) (*models.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trades[txHash], nil
}

func (r *schedRepo) CreateTrade(_ context.Context, item *models.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.trades == nil {
		r.trades = map[string]*models.Trade{}
	}
	r.trades[item.TxHash] = item
	return nil
}

func (r *schedRepo) SaveTrade(_ context.Context, item *models.Trade) error {
	return r.CreateTrade(context.Background(), item)
}

func (r *schedRepo) ListSettledPayouts(context.Context, string) ([]repository.SettledPayout, error) {
	return nil, nil
}

func (r *schedRepo) UpdateUserStreaks(context.Context, string, int, int) error {
	return nil
}

func (r *schedRepo) ListExpiringOpenTradeFids(context.Context, time.Time, time.Time) ([]int64, error) {
	return r.expiring, nil
}

func (r *schedRepo) GetNotificationTemplateByCode(_ context.Context, code string) (*models.NotificationTemplate, error) {
	return &models.NotificationTemplate{Code: code, Title: "t", Body: "b", IsActive: true}, nil
}

func strPtr(v string) *string { return &v }

func emptyIndexer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode([]thetanuts.Position{}); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
}

func newTestScheduler(repo *schedRepo, indexerURL string) *Scheduler {
	configSvc := &service.ConfigStoreService{TTL: time.Minute}
	return &Scheduler{
		Sync: &service.TradeSyncService{
			Repo:    repo,
			Indexer: thetanuts.NewClient(http.DefaultClient, indexerURL),
		},
		Config: configSvc,
		Conf: config.SchedulerConfig{
			Enabled:              true,
			SyncInterval:         15 * time.Minute,
			SettleDelay:          0,
			ExpiryReminderCron:   "0 0 7 * * *",
			ExpiryReminderWindow: time.Hour,
		},
		Sleep: func(context.Context, time.Duration) {},
	}
}

func TestRunSyncCycleUpdatesStatus(t *testing.T) {
	server := emptyIndexer(t)
	defer server.Close()

	repo := &schedRepo{users: []models.User{
		{ID: "u1", Fid: 1, Status: models.UserStatusActive, PrimaryEthAddress: strPtr("0xw1")},
	}}
	s := newTestScheduler(repo, server.URL)

	if got := s.Status(); got.State == StateRunning {
		t.Fatalf("fresh scheduler should be idle")
	}
	fleet, err := s.RunSyncCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if fleet.UsersProcessed != 1 {
		t.Fatalf("unexpected fleet result: %+v", fleet)
	}

	status := s.Status()
	if status.State != StateIdle {
		t.Fatalf("expected idle after cycle, got %s", status.State)
	}
	if status.LastRunAt == nil {
		t.Fatalf("last run time not recorded")
	}
	if status.LastResult == nil || status.LastResult.UsersProcessed != 1 {
		t.Fatalf("unexpected last result: %+v", status.LastResult)
	}
}

func TestManualSyncRunsDuringScheduledCycle(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	repo := &schedRepo{users: []models.User{
		{ID: "u1", Fid: 1, Status: models.UserStatusActive, PrimaryEthAddress: strPtr("0xw1")},
	}}
	s := newTestScheduler(repo, server.URL)

	scheduled := make(chan error, 1)
	go func() {
		_, err := s.RunSyncCycle(context.Background())
		scheduled <- err
	}()
	<-started

	// The first cycle is still blocked on the indexer; the manual trigger
	// runs alongside it and reports its own totals.
	type manualResult struct {
		fleet service.FleetSyncResult
		err   error
	}
	manual := make(chan manualResult, 1)
	go func() {
		fleet, err := s.TriggerManualSync(context.Background())
		manual <- manualResult{fleet, err}
	}()
	<-started

	close(release)
	got := <-manual
	if got.err != nil {
		t.Fatalf("manual trigger failed: %v", got.err)
	}
	if got.fleet.UsersProcessed != 1 {
		t.Fatalf("unexpected manual totals: %+v", got.fleet)
	}
	if err := <-scheduled; err != nil {
		t.Fatalf("scheduled cycle failed: %v", err)
	}
}

func TestStartStopTracksLifecycle(t *testing.T) {
	repo := &schedRepo{}
	s := newTestScheduler(repo, "http://localhost:0")

	if got := s.Status().State; got != StateIdle {
		t.Fatalf("expected idle before start, got %s", got)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := s.Status().State; got != StateRunning {
		t.Fatalf("expected running after start, got %s", got)
	}
	s.Stop()
	if got := s.Status().State; got != StateIdle {
		t.Fatalf("expected idle after stop, got %s", got)
	}
}

func TestRunExpiryReminderSendsToExpiringFids(t *testing.T) {
	var captured struct {
		TargetFids []int64 `json:"target_fids"`
	}
	calls := 0
	notifyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer notifyServer.Close()

	repo := &schedRepo{expiring: []int64{7, 9}}
	s := newTestScheduler(repo, "http://localhost:0")
	s.Notifier = &service.NotificationService{
		Repo:   repo,
		Client: neynar.NewClient(http.DefaultClient, notifyServer.URL, "key"),
	}

	s.runExpiryReminder(context.Background())
	if calls != 1 {
		t.Fatalf("expected one notification call, got %d", calls)
	}
	if len(captured.TargetFids) != 2 || captured.TargetFids[0] != 7 {
		t.Fatalf("unexpected fids %v", captured.TargetFids)
	}
}

func TestRunExpiryReminderSkipsWhenDisabled(t *testing.T) {
	repo := &schedRepo{expiring: []int64{7}}
	s := newTestScheduler(repo, "http://localhost:0")
	s.Config = &service.ConfigStoreService{
		TTL:      time.Minute,
		Fallback: map[string]string{service.KeyExpiryReminderEnabled: "false"},
	}

	// A send attempt would panic on the nil notifier's client lookup
	// path; disabled must return before getting there.
	s.runExpiryReminder(context.Background())
}
