package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nodemonitor/internal/model"
	"nodemonitor/pkg/config"
	"nodemonitor/pkg/dashboard"
	"nodemonitor/pkg/earnings"
	"nodemonitor/pkg/interfaces"
	"nodemonitor/pkg/logger"
	"nodemonitor/pkg/notification"
	"nodemonitor/pkg/solana"
	mysqlModel "nodemonitor/pkg/store/mysql/model"

	"github.com/shopspring/decimal"
)

// Outcome describes what one reconcile pass observed and did
type Outcome struct {
	Node              *mysqlModel.Node
	PreviousStatus    string
	PreviousJobStatus string

	JobStarted   bool
	JobCompleted bool
	// Earnings is set when a completed job was priced.
	Earnings *earnings.Earnings
	Recorded bool
	entry    *mysqlModel.JobEarning

	Notified        []string
	LowBalanceAlert bool

	LookupErr error
	ScrapeErr error
}

// Reconciler derives node status from chain and dashboard observations and
// acts on transitions
type Reconciler struct {
	nodes         interfaces.NodeRepository
	accounts      interfaces.AccountLookup
	scraper       interfaces.PageScraper
	quoter        interfaces.PriceQuoter
	earnings      *EarningsService
	notifier      *NotificationService
	alerts        interfaces.AlertStore
	locker        interfaces.Locker
	hub           *StatusHub
	cfg           config.MonitorConfig
	dashboardBase string
}

// NewReconciler creates a reconciler. alerts and hub may be nil.
func NewReconciler(
	nodes interfaces.NodeRepository,
	accounts interfaces.AccountLookup,
	scraper interfaces.PageScraper,
	quoter interfaces.PriceQuoter,
	earningsService *EarningsService,
	notifier *NotificationService,
	alerts interfaces.AlertStore,
	locker interfaces.Locker,
	hub *StatusHub,
	cfg config.MonitorConfig,
	dashboardBase string,
) *Reconciler {
	return &Reconciler{
		nodes:         nodes,
		accounts:      accounts,
		scraper:       scraper,
		quoter:        quoter,
		earnings:      earningsService,
		notifier:      notifier,
		alerts:        alerts,
		locker:        locker,
		hub:           hub,
		cfg:           cfg,
		dashboardBase: dashboardBase,
	}
}

// Reconcile observes node once, applies transitions and persists the view.
// Collaborator failures degrade the status; only a failed save is returned.
// A transition earnings entry commits with the node row or not at all. In
// scrape earnings mode the page's job table is synced after the save.
func (r *Reconciler) Reconcile(ctx context.Context, node *mysqlModel.Node, now time.Time) (*Outcome, error) {
	now = now.UTC()
	out := &Outcome{
		Node:              node,
		PreviousStatus:    node.Status,
		PreviousJobStatus: node.JobStatus,
	}

	account, err := r.accounts.Lookup(ctx, node.Address)
	if err != nil {
		out.LookupErr = err
		logger.WarnCtx(ctx, "account lookup failed for %s: %v", node.Address, err)
	}

	page, err := r.scraper.Scrape(ctx, node.Address)
	if err != nil {
		out.ScrapeErr = err
		logger.WarnCtx(ctx, "dashboard scrape failed for %s: %v", node.Address, err)
	}

	status := connectivity(account, out.LookupErr, page)
	jobStatus := node.JobStatus
	if page != nil {
		jobStatus = string(dashboard.ClassifyJobStatus(page.Text))
	}

	if account != nil {
		if account.Exists {
			node.SOLBalance = decimal.NewNullDecimal(account.SOL())
		} else {
			node.SOLBalance = decimal.NullDecimal{}
		}
		if account.NOSBalance != nil {
			node.NOSBalance = decimal.NewNullDecimal(*account.NOSBalance)
		}
	}

	r.applyJobTransition(ctx, node, out, jobStatus, now)
	r.applyConnectivityTransition(ctx, node, out, status)
	r.checkLowBalance(ctx, node, out, now)

	node.Status = status
	node.JobStatus = jobStatus
	node.LastChecked = &now
	node.UpdatedAt = now
	err = r.earnings.RecordWith(ctx, out.entry, now, func(txCtx context.Context) error {
		return r.nodes.Save(txCtx, node)
	})
	if err != nil {
		return out, fmt.Errorf("failed to save node status: %w", err)
	}
	out.Recorded = out.entry != nil

	if page != nil && r.earnings.Mode() == config.EarningsModeScrape {
		r.earnings.SyncPage(ctx, node, page)
	}

	if r.hub != nil {
		r.hub.Publish(node.UserID, model.NodeStatusEvent{
			Type: "node_status",
			Node: NodeView(node, r.dashboardBase),
		})
	}
	return out, nil
}

func connectivity(account *solana.AccountState, lookupErr error, page *dashboard.Page) string {
	if lookupErr != nil || account == nil {
		if page != nil {
			return string(dashboard.ClassifyConnectivity(page.Text))
		}
		return mysqlModel.NodeStatusUnknown
	}
	if !account.Exists {
		return mysqlModel.NodeStatusOffline
	}
	if account.Lamports > 0 || account.HasData {
		return mysqlModel.NodeStatusOnline
	}
	return mysqlModel.NodeStatusOffline
}

func (r *Reconciler) applyJobTransition(ctx context.Context, node *mysqlModel.Node, out *Outcome, jobStatus string, now time.Time) {
	wasRunning := node.JobStatus == mysqlModel.JobStatusRunning
	isRunning := jobStatus == mysqlModel.JobStatusRunning
	tpl := r.notifier.Templates()

	switch {
	case isRunning && !wasRunning:
		start := now
		node.JobStartTime = &start
		out.JobStarted = true
		r.dispatch(ctx, out, tpl.JobStarted(node.UserID, node.DisplayName(), node.Address))

	case wasRunning && !isRunning:
		out.JobCompleted = true
		node.JobCountCompleted++

		var duration int64
		var nos, usd *decimal.Decimal
		if node.JobStartTime != nil {
			duration = int64(now.Sub(*node.JobStartTime).Seconds())
			if duration < 0 {
				duration = 0
			}
			if e, ok := r.settle(ctx, node, out, duration, now); ok {
				nos, usd = &e.TokenAmount, &e.USDValue
			}
		} else {
			logger.WarnCtx(ctx, "job finished on node %s without a start time, no earnings recorded", node.ID)
		}
		node.JobStartTime = nil

		r.dispatch(ctx, out, tpl.JobCompleted(node.UserID, node.DisplayName(), node.Address, duration, nos, usd))
	}
}

// settle prices a finished job. In transition earnings mode it stages the
// entry that Reconcile saves with the node.
func (r *Reconciler) settle(ctx context.Context, node *mysqlModel.Node, out *Outcome, duration int64, now time.Time) (earnings.Earnings, bool) {
	quote := r.quoter.Quote(ctx)
	e, err := r.earnings.Calculator().ForJob(duration, decimal.NullDecimal{}, node.GPUType, quote.USD)
	if err != nil {
		logger.WarnCtx(ctx, "skipped earnings for node %s: %v", node.ID, err)
		return earnings.Earnings{}, false
	}
	out.Earnings = &e

	if r.earnings.Mode() != config.EarningsModeTransition {
		return e, true
	}
	out.entry = r.earnings.NewEntry(node, nil, now, duration, e)
	return e, true
}

func (r *Reconciler) applyConnectivityTransition(ctx context.Context, node *mysqlModel.Node, out *Outcome, status string) {
	tpl := r.notifier.Templates()
	switch {
	case node.Status == mysqlModel.NodeStatusOnline && status == mysqlModel.NodeStatusOffline:
		r.dispatch(ctx, out, tpl.NodeOffline(node.UserID, node.DisplayName(), node.Address))
	case node.Status == mysqlModel.NodeStatusOffline && status == mysqlModel.NodeStatusOnline:
		r.dispatch(ctx, out, tpl.NodeOnline(node.UserID, node.DisplayName(), node.Address))
	}
}

func (r *Reconciler) checkLowBalance(ctx context.Context, node *mysqlModel.Node, out *Outcome, now time.Time) {
	if !node.SOLBalance.Valid {
		return
	}
	threshold := decimal.NewFromFloat(r.cfg.LowBalanceThreshold)
	if !node.SOLBalance.Decimal.LessThan(threshold) {
		return
	}
	if node.LastLowBalanceAlert != nil && now.Sub(*node.LastLowBalanceAlert) < r.cfg.AlertCooldown {
		return
	}

	if r.alerts != nil {
		claimed, err := r.alerts.Claim(ctx, "low_balance:"+node.ID, r.cfg.AlertCooldown)
		if err != nil {
			logger.WarnCtx(ctx, "low balance alert claim failed for node %s: %v", node.ID, err)
		} else if !claimed {
			return
		}
	}

	at := now
	node.LastLowBalanceAlert = &at
	out.LowBalanceAlert = true
	r.dispatch(ctx, out, r.notifier.Templates().LowBalance(node.UserID, node.DisplayName(), node.Address,
		node.SOLBalance.Decimal, r.cfg.LowBalanceThreshold))
}

func (r *Reconciler) dispatch(ctx context.Context, out *Outcome, msg *notification.Message) {
	out.Notified = append(out.Notified, string(msg.Kind))
	r.notifier.Dispatch(ctx, msg)
}

// RefreshNode reconciles one of a user's nodes under the user's refresh lock
func (r *Reconciler) RefreshNode(ctx context.Context, userID, nodeID string) (*mysqlModel.Node, error) {
	var result *mysqlModel.Node
	err := r.withUserLock(ctx, userID, func() error {
		node, err := r.nodes.Get(ctx, userID, nodeID)
		if err != nil {
			return err
		}
		if node == nil {
			return ErrNodeNotFound
		}
		if _, err := r.Reconcile(ctx, node, time.Now()); err != nil {
			return err
		}
		result = node
		return nil
	})
	return result, err
}

// RefreshUser reconciles every node of userID in turn. A failing node is
// counted and skipped.
func (r *Reconciler) RefreshUser(ctx context.Context, userID string) (*model.RefreshResponse, error) {
	resp := &model.RefreshResponse{Nodes: []model.NodeResponse{}}
	err := r.withUserLock(ctx, userID, func() error {
		nodes, err := r.nodes.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, node := range nodes {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if _, err := r.Reconcile(ctx, node, time.Now()); err != nil {
				logger.ErrorCtx(ctx, "reconcile failed, node_id: %s, error: %v", node.ID, err)
				resp.Failed++
			} else {
				resp.Refreshed++
			}
			resp.Nodes = append(resp.Nodes, NodeView(node, r.dashboardBase))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *Reconciler) withUserLock(ctx context.Context, userID string, fn func() error) error {
	l := r.locker.NewLock("node-refresh:" + userID)
	acquired, err := l.TryLock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire refresh lock: %w", err)
	}
	if !acquired {
		return ErrRefreshInProgress
	}
	defer func() {
		if err := l.Unlock(context.Background()); err != nil {
			logger.WarnCtx(ctx, "failed to release refresh lock for user %s: %v", userID, err)
		}
	}()
	return fn()
}

// IsRefreshInProgress reports whether err means another refresh holds the user's lock
func IsRefreshInProgress(err error) bool {
	return errors.Is(err, ErrRefreshInProgress)
}
