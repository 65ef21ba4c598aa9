package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"nodemonitor/pkg/dashboard"
	"nodemonitor/pkg/interfaces"
	"nodemonitor/pkg/notification"
	"nodemonitor/pkg/price"
	"nodemonitor/pkg/solana"
	"nodemonitor/pkg/store/mysql/model"

	"github.com/shopspring/decimal"
)

// memStore backs the mock repositories with in-memory tables.
type memStore struct {
	mu       sync.RWMutex
	users    map[string]*model.User
	nodes    map[string]*model.Node
	earnings []*model.JobEarning
	tracking map[string]*model.NodeTrackingMetadata
	scraped  map[string]*model.ScrapedJob
	prefs    map[string]*model.NotificationPreferences
	tokens   map[string]*model.DeviceToken
	telegram map[string]*model.TelegramUser
	codes    map[string]*model.TelegramLinkCode

	// failNodeSaves and failEarningCreates fail that many upcoming calls.
	failNodeSaves      int
	failEarningCreates int
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*model.User),
		nodes:    make(map[string]*model.Node),
		tracking: make(map[string]*model.NodeTrackingMetadata),
		scraped:  make(map[string]*model.ScrapedJob),
		prefs:    make(map[string]*model.NotificationPreferences),
		tokens:   make(map[string]*model.DeviceToken),
		telegram: make(map[string]*model.TelegramUser),
		codes:    make(map[string]*model.TelegramLinkCode),
	}
}

// mockTx restores the node, earnings, tracking and scraped tables when fn fails.
type mockTx struct{ *memStore }

func (m mockTx) ExecTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.memStore == nil {
		return fn(ctx)
	}
	m.mu.RLock()
	nodes := copyMap(m.nodes)
	entries := append([]*model.JobEarning(nil), m.earnings...)
	tracking := copyMap(m.tracking)
	scraped := copyMap(m.scraped)
	m.mu.RUnlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.nodes, m.earnings, m.tracking, m.scraped = nodes, entries, tracking, scraped
		m.mu.Unlock()
		return err
	}
	return nil
}

func copyMap[V any](src map[string]*V) map[string]*V {
	dst := make(map[string]*V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

var errInjected = errors.New("injected failure")

type mockUserRepository struct{ *memStore }

func (m mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m mockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m mockUserRepository) ListIDsWithNodes(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var ids []string
	for _, n := range m.nodes {
		if !seen[n.UserID] {
			seen[n.UserID] = true
			ids = append(ids, n.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m mockUserRepository) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

type mockNodeRepository struct{ *memStore }

func (m mockNodeRepository) Create(ctx context.Context, node *model.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *node
	m.nodes[node.ID] = &cp
	return nil
}

func (m mockNodeRepository) Get(ctx context.Context, userID, nodeID string) (*model.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.nodes[nodeID]; ok && n.UserID == userID {
		cp := *n
		return &cp, nil
	}
	return nil, nil
}

func (m mockNodeRepository) GetByAddress(ctx context.Context, userID, address string) (*model.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.nodes {
		if n.UserID == userID && n.Address == address {
			cp := *n
			return &cp, nil
		}
	}
	return nil, nil
}

func (m mockNodeRepository) ListByUser(ctx context.Context, userID string) ([]*model.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*model.Node
	for _, n := range m.nodes {
		if n.UserID == userID {
			cp := *n
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m mockNodeRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	nodes, _ := m.ListByUser(ctx, userID)
	return int64(len(nodes)), nil
}

func (m mockNodeRepository) Save(ctx context.Context, node *model.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNodeSaves > 0 {
		m.failNodeSaves--
		return errInjected
	}
	cp := *node
	m.nodes[node.ID] = &cp
	return nil
}

func (m mockNodeRepository) Delete(ctx context.Context, userID, nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[nodeID]; ok && n.UserID == userID {
		delete(m.nodes, nodeID)
	}
	return nil
}

func (m mockNodeRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int64)
	for _, n := range m.nodes {
		counts[n.Status]++
	}
	return counts, nil
}

func (m mockNodeRepository) CountByJobStatus(ctx context.Context) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int64)
	for _, n := range m.nodes {
		counts[n.JobStatus]++
	}
	return counts, nil
}

type mockEarningsRepository struct{ *memStore }

func (m mockEarningsRepository) Create(ctx context.Context, entry *model.JobEarning) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEarningCreates > 0 {
		m.failEarningCreates--
		return errInjected
	}
	cp := *entry
	m.earnings = append(m.earnings, &cp)
	return nil
}

func inRange(at time.Time, from, to *time.Time) bool {
	if from != nil && at.Before(*from) {
		return false
	}
	if to != nil && !at.Before(*to) {
		return false
	}
	return true
}

func (m mockEarningsRepository) list(match func(*model.JobEarning) bool, from, to *time.Time) []*model.JobEarning {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*model.JobEarning
	for _, e := range m.earnings {
		if match(e) && inRange(e.CompletedAt, from, to) {
			cp := *e
			result = append(result, &cp)
		}
	}
	return result
}

func (m mockEarningsRepository) ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]*model.JobEarning, error) {
	return m.list(func(e *model.JobEarning) bool { return e.UserID == userID }, from, to), nil
}

func (m mockEarningsRepository) ListByNode(ctx context.Context, nodeID string, from, to *time.Time) ([]*model.JobEarning, error) {
	return m.list(func(e *model.JobEarning) bool { return e.NodeID == nodeID }, from, to), nil
}

func (m mockEarningsRepository) DeleteByNode(ctx context.Context, nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.earnings[:0]
	for _, e := range m.earnings {
		if e.NodeID != nodeID {
			kept = append(kept, e)
		}
	}
	m.earnings = kept
	return nil
}

func (m mockEarningsRepository) Totals(ctx context.Context) (*interfaces.EarningsTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	usd, nos := decimal.Zero, decimal.Zero
	for _, e := range m.earnings {
		usd = usd.Add(e.USDValue)
		nos = nos.Add(e.NOSEarned)
	}
	return &interfaces.EarningsTotals{
		JobCount: int64(len(m.earnings)),
		USD:      usd.InexactFloat64(),
		NOS:      nos.InexactFloat64(),
	}, nil
}

type mockTrackingRepository struct {
	*memStore
	saveErr error
}

func (m *mockTrackingRepository) Get(ctx context.Context, nodeID string) (*model.NodeTrackingMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tracking[nodeID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (m *mockTrackingRepository) GetForUpdate(ctx context.Context, nodeID string) (*model.NodeTrackingMetadata, error) {
	return m.Get(ctx, nodeID)
}

func (m *mockTrackingRepository) CreateIfAbsent(ctx context.Context, meta *model.NodeTrackingMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tracking[meta.NodeID]; !ok {
		cp := *meta
		m.tracking[meta.NodeID] = &cp
	}
	return nil
}

func (m *mockTrackingRepository) Save(ctx context.Context, meta *model.NodeTrackingMetadata) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *meta
	m.tracking[meta.NodeID] = &cp
	return nil
}

func (m *mockTrackingRepository) DeleteByNode(ctx context.Context, nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tracking, nodeID)
	return nil
}

type mockScrapedJobRepository struct{ *memStore }

func (m mockScrapedJobRepository) InsertIfAbsent(ctx context.Context, job *model.ScrapedJob) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := job.JobID + "|" + job.NodeAddress
	if _, ok := m.scraped[key]; ok {
		return false, nil
	}
	cp := *job
	m.scraped[key] = &cp
	return true, nil
}

func (m mockScrapedJobRepository) MarkCompleted(ctx context.Context, job *model.ScrapedJob) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := job.JobID + "|" + job.NodeAddress
	stored, ok := m.scraped[key]
	if !ok || stored.Status == job.Status {
		return false, nil
	}
	cp := *stored
	cp.Status = job.Status
	cp.DurationSeconds = job.DurationSeconds
	cp.DurationText = job.DurationText
	cp.CompletedAt = job.CompletedAt
	cp.ScrapedAt = job.ScrapedAt
	m.scraped[key] = &cp
	return true, nil
}

func (m mockScrapedJobRepository) ListByNode(ctx context.Context, nodeID string, limit int) ([]*model.ScrapedJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*model.ScrapedJob
	for _, j := range m.scraped {
		if j.NodeID == nodeID {
			cp := *j
			result = append(result, &cp)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m mockScrapedJobRepository) DeleteByNode(ctx context.Context, nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, j := range m.scraped {
		if j.NodeID == nodeID {
			delete(m.scraped, k)
		}
	}
	return nil
}

type mockPreferencesRepository struct{ *memStore }

func (m mockPreferencesRepository) Get(ctx context.Context, userID string) (*model.NotificationPreferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prefs[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m mockPreferencesRepository) Upsert(ctx context.Context, prefs *model.NotificationPreferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *prefs
	m.prefs[prefs.UserID] = &cp
	return nil
}

func (m mockPreferencesRepository) Counts(ctx context.Context) (*interfaces.PreferencesCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := &interfaces.PreferencesCounts{}
	for _, p := range m.prefs {
		c.Offline += b2i(p.NotifyOffline)
		c.Online += b2i(p.NotifyOnline)
		c.JobStarted += b2i(p.NotifyJobStarted)
		c.JobCompleted += b2i(p.NotifyJobCompleted)
		c.LowBalance += b2i(p.NotifyLowBalance)
	}
	return c, nil
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

type mockDeviceTokenRepository struct{ *memStore }

func (m mockDeviceTokenRepository) Upsert(ctx context.Context, token *model.DeviceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *token
	m.tokens[token.Token] = &cp
	return nil
}

func (m mockDeviceTokenRepository) Delete(ctx context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[token]; ok && t.UserID == userID {
		delete(m.tokens, token)
	}
	return nil
}

func (m mockDeviceTokenRepository) ListByUser(ctx context.Context, userID string) ([]*model.DeviceToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*model.DeviceToken
	for _, t := range m.tokens {
		if t.UserID == userID {
			cp := *t
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Token < result[j].Token })
	return result, nil
}

func (m mockDeviceTokenRepository) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.tokens)), nil
}

type mockTelegramRepository struct{ *memStore }

func (m mockTelegramRepository) GetUser(ctx context.Context, userID string) (*model.TelegramUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.telegram[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m mockTelegramRepository) Link(ctx context.Context, user *model.TelegramUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.telegram[user.UserID] = &cp
	return nil
}

func (m mockTelegramRepository) Unlink(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.telegram, userID)
	return nil
}

func (m mockTelegramRepository) ConsumeCode(ctx context.Context, code string, now time.Time) (*model.TelegramLinkCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok {
		return nil, nil
	}
	delete(m.codes, code)
	if !c.ExpiresAt.After(now) {
		return nil, nil
	}
	return c, nil
}

func (m mockTelegramRepository) DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, c := range m.codes {
		if !c.ExpiresAt.After(now) {
			delete(m.codes, k)
			n++
		}
	}
	return n, nil
}

func (m mockTelegramRepository) CountUsers(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.telegram)), nil
}

// mockLoginAttempts keeps failure timestamps per email.
type mockLoginAttempts struct {
	mu       sync.Mutex
	failures map[string][]time.Time
}

func newMockLoginAttempts() *mockLoginAttempts {
	return &mockLoginAttempts{failures: make(map[string][]time.Time)}
}

func (m *mockLoginAttempts) RecordFailure(ctx context.Context, email string, at time.Time, window time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[email] = append(m.failures[email], at)
	return nil
}

func (m *mockLoginAttempts) CountFailures(ctx context.Context, email string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, at := range m.failures[email] {
		if !at.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *mockLoginAttempts) Reset(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, email)
	return nil
}

type mockAccounts struct {
	mu     sync.Mutex
	states map[string]*solana.AccountState
	err    error
}

func (m *mockAccounts) set(address string, state *solana.AccountState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states == nil {
		m.states = make(map[string]*solana.AccountState)
	}
	m.states[address] = state
}

func (m *mockAccounts) Lookup(ctx context.Context, address string) (*solana.AccountState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.states[address]; ok {
		cp := *s
		return &cp, nil
	}
	return &solana.AccountState{}, nil
}

type mockScraper struct {
	mu    sync.Mutex
	pages map[string]*dashboard.Page
	err   error
}

func (m *mockScraper) setText(address, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pages == nil {
		m.pages = make(map[string]*dashboard.Page)
	}
	m.pages[address] = &dashboard.Page{Address: address, Text: text, ScrapedAt: time.Now().UTC()}
}

func (m *mockScraper) setPage(address string, page *dashboard.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pages == nil {
		m.pages = make(map[string]*dashboard.Page)
	}
	m.pages[address] = page
}

func (m *mockScraper) Scrape(ctx context.Context, address string) (*dashboard.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.pages[address]; ok {
		return p, nil
	}
	return &dashboard.Page{Address: address, ScrapedAt: time.Now().UTC()}, nil
}

type fixedQuoter struct {
	usd decimal.Decimal
}

func (q fixedQuoter) Quote(ctx context.Context) price.Quote {
	return price.Quote{USD: q.usd, Source: price.SourceLive}
}

type mockAlertStore struct {
	mu      sync.Mutex
	claimed map[string]bool
}

func (m *mockAlertStore) Claim(ctx context.Context, key string, cooldown time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimed == nil {
		m.claimed = make(map[string]bool)
	}
	if m.claimed[key] {
		return false, nil
	}
	m.claimed[key] = true
	return true, nil
}

// recordingQueue captures enqueued notifications.
type recordingQueue struct {
	mu       sync.Mutex
	messages []*notification.Message
}

func (q *recordingQueue) EnqueueNotification(ctx context.Context, msg *notification.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, msg)
	return nil
}

func (q *recordingQueue) kinds() []notification.Kind {
	q.mu.Lock()
	defer q.mu.Unlock()
	kinds := make([]notification.Kind, 0, len(q.messages))
	for _, m := range q.messages {
		kinds = append(kinds, m.Kind)
	}
	return kinds
}

func (q *recordingQueue) last() *notification.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.messages) == 0 {
		return nil
	}
	return q.messages[len(q.messages)-1]
}

// recordingSender captures delivered notifications.
type recordingSender struct {
	mu      sync.Mutex
	name    string
	err     error
	targets []notification.Target
	sent    []*notification.Message
}

func (s *recordingSender) Name() string { return s.name }

func (s *recordingSender) Send(ctx context.Context, target notification.Target, msg *notification.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append(s.targets, target)
	s.sent = append(s.sent, msg)
	return s.err
}
