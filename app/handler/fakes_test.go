package handler

import (
	"context"
	"sync"
	"time"

	"nodemonitor/pkg/interfaces"
	"nodemonitor/pkg/store/mysql/model"
)

type fakeTx struct{}

func (fakeTx) ExecTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUsers struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*model.User)}
}

func (f *fakeUsers) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := *user
	f.users[u.ID] = &u
	return nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) ListIDsWithNodes(ctx context.Context) ([]string, error) { return nil, nil }

func (f *fakeUsers) Count(ctx context.Context) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int64(len(f.users)), nil
}

type fakePrefs struct{}

func (fakePrefs) Get(ctx context.Context, userID string) (*model.NotificationPreferences, error) {
	return nil, nil
}
func (fakePrefs) Upsert(ctx context.Context, prefs *model.NotificationPreferences) error { return nil }
func (fakePrefs) Counts(ctx context.Context) (*interfaces.PreferencesCounts, error) {
	return &interfaces.PreferencesCounts{}, nil
}

type fakeAttempts struct {
	mu       sync.Mutex
	failures map[string]int64
}

func (f *fakeAttempts) RecordFailure(ctx context.Context, email string, at time.Time, window time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures == nil {
		f.failures = make(map[string]int64)
	}
	f.failures[email]++
	return nil
}

func (f *fakeAttempts) CountFailures(ctx context.Context, email string, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[email], nil
}

func (f *fakeAttempts) Reset(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, email)
	return nil
}

type fakeNodes struct {
	mu    sync.RWMutex
	nodes map[string]*model.Node
}

func newFakeNodes() *fakeNodes {
	return &fakeNodes{nodes: make(map[string]*model.Node)}
}

func (f *fakeNodes) Create(ctx context.Context, node *model.Node) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := *node
	f.nodes[n.ID] = &n
	return nil
}

func (f *fakeNodes) Get(ctx context.Context, userID, nodeID string) (*model.Node, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n, ok := f.nodes[nodeID]; ok && n.UserID == userID {
		cp := *n
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeNodes) GetByAddress(ctx context.Context, userID, address string) (*model.Node, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, n := range f.nodes {
		if n.UserID == userID && n.Address == address {
			cp := *n
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeNodes) ListByUser(ctx context.Context, userID string) ([]*model.Node, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []*model.Node
	for _, n := range f.nodes {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeNodes) CountByUser(ctx context.Context, userID string) (int64, error) {
	nodes, _ := f.ListByUser(ctx, userID)
	return int64(len(nodes)), nil
}

func (f *fakeNodes) Save(ctx context.Context, node *model.Node) error {
	return f.Create(ctx, node)
}

func (f *fakeNodes) Delete(ctx context.Context, userID, nodeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.nodes, nodeID)
	return nil
}

func (f *fakeNodes) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (f *fakeNodes) CountByJobStatus(ctx context.Context) (map[string]int64, error) {
	return map[string]int64{}, nil
}

// fakeNodeData covers the per-node tables removed alongside a node.
type fakeNodeData struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeNodeData) record(table, nodeID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, table+":"+nodeID)
}

type fakeEarnings struct{ *fakeNodeData }

func (fakeEarnings) Create(ctx context.Context, entry *model.JobEarning) error { return nil }
func (fakeEarnings) ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]*model.JobEarning, error) {
	return nil, nil
}
func (fakeEarnings) ListByNode(ctx context.Context, nodeID string, from, to *time.Time) ([]*model.JobEarning, error) {
	return nil, nil
}
func (f fakeEarnings) DeleteByNode(ctx context.Context, nodeID string) error {
	f.record("earnings", nodeID)
	return nil
}
func (fakeEarnings) Totals(ctx context.Context) (*interfaces.EarningsTotals, error) {
	return &interfaces.EarningsTotals{}, nil
}

type fakeTracking struct{ *fakeNodeData }

func (fakeTracking) Get(ctx context.Context, nodeID string) (*model.NodeTrackingMetadata, error) {
	return nil, nil
}
func (fakeTracking) GetForUpdate(ctx context.Context, nodeID string) (*model.NodeTrackingMetadata, error) {
	return nil, nil
}
func (fakeTracking) CreateIfAbsent(ctx context.Context, meta *model.NodeTrackingMetadata) error {
	return nil
}
func (fakeTracking) Save(ctx context.Context, meta *model.NodeTrackingMetadata) error { return nil }
func (f fakeTracking) DeleteByNode(ctx context.Context, nodeID string) error {
	f.record("tracking", nodeID)
	return nil
}

type fakeScraped struct{ *fakeNodeData }

func (fakeScraped) InsertIfAbsent(ctx context.Context, job *model.ScrapedJob) (bool, error) {
	return true, nil
}
func (fakeScraped) MarkCompleted(ctx context.Context, job *model.ScrapedJob) (bool, error) {
	return false, nil
}
func (fakeScraped) ListByNode(ctx context.Context, nodeID string, limit int) ([]*model.ScrapedJob, error) {
	return nil, nil
}
func (f fakeScraped) DeleteByNode(ctx context.Context, nodeID string) error {
	f.record("scraped", nodeID)
	return nil
}
