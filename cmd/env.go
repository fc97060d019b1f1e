package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/estimate-cli/internal/config"
	"github.com/sells-group/estimate-cli/internal/engine"
	"github.com/sells-group/estimate-cli/internal/model"
	"github.com/sells-group/estimate-cli/internal/resilience"
	"github.com/sells-group/estimate-cli/internal/segment"
	"github.com/sells-group/estimate-cli/internal/sfsync"
	"github.com/sells-group/estimate-cli/internal/store"
	"github.com/sells-group/estimate-cli/pkg/salesforce"
)

// now is replaced in tests.
var now = time.Now

// cmdEnv holds the connections a command works against.
type cmdEnv struct {
	store    store.Store
	sf       salesforce.Client
	accounts store.AccountLister
}

// openEnv validates config and opens the store, plus Salesforce when the
// account source or wantSF asks for it.
func openEnv(ctx context.Context, wantSF bool) (*cmdEnv, error) {
	scopes := []string{config.ScopeStore}
	useSF := wantSF || cfg.Accounts.Source == config.AccountSourceSalesforce
	if useSF {
		scopes = append(scopes, config.ScopeSalesforce)
	}
	if err := cfg.Validate(scopes...); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &cmdEnv{store: st, accounts: st}

	if useSF {
		sf, err := initSalesforce()
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		env.sf = sf
		if cfg.Accounts.Source == config.AccountSourceSalesforce {
			env.accounts = sfsync.NewAccountSource(sf)
		}
	}
	return env, nil
}

func (e *cmdEnv) Close() {
	if err := e.store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

// snapshot loads every estimate and account with retried paging.
func (e *cmdEnv) snapshot(ctx context.Context) (*store.Snapshot, error) {
	return store.LoadSnapshot(ctx, e.store, e.accounts, store.LoadOptions{
		PageSize: cfg.Engine.PageSize,
		Retry:    retryConfig(),
	})
}

// persister picks where segment write-backs go. Nil means dry run.
func (e *cmdEnv) persister(dryRun, syncSF bool) segment.Persister {
	if dryRun {
		return nil
	}
	var out segment.MultiPersister
	if cfg.Accounts.Source != config.AccountSourceSalesforce {
		out = append(out, e.store)
	}
	if e.sf != nil && (syncSF || cfg.Accounts.Source == config.AccountSourceSalesforce) {
		out = append(out, sfsync.NewSegmentWriter(e.sf))
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return out
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "estimates.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initSalesforce() (salesforce.Client, error) {
	var opts []salesforce.ClientOption
	if cfg.Salesforce.RateLimit > 0 {
		opts = append(opts, salesforce.WithRateLimit(cfg.Salesforce.RateLimit))
	}
	return salesforce.Connect(salesforce.Credentials{
		LoginURL: cfg.Salesforce.LoginURL,
		Username: cfg.Salesforce.Username,
		ClientID: cfg.Salesforce.ClientID,
		KeyPath:  cfg.Salesforce.KeyPath,
	}, opts...)
}

func retryConfig() resilience.RetryConfig {
	return resilience.FromConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs)
}

// engineOptions builds engine options from config, with the renewal window
// taken from engine.renewal_threshold_days.
func engineOptions(includeSnoozed bool) engine.Options {
	return engine.Options{
		Concurrency:    cfg.Engine.Concurrency,
		ThresholdDays:  cfg.Engine.RenewalThresholdDays,
		IncludeSnoozed: includeSnoozed,
	}
}

// resolveToday parses raw, or takes the current date in the configured zone
// when raw is blank.
func resolveToday(raw string, loc *time.Location) (model.Date, error) {
	if raw == "" {
		return model.DateOf(now().In(loc)), nil
	}
	d := model.ParseDate(raw)
	if !d.Valid() {
		return model.Date{}, eris.Errorf("invalid --today %q (want YYYY-MM-DD)", raw)
	}
	return d, nil
}

// resolveYear returns year, or the current year in loc when year is 0.
func resolveYear(year int, loc *time.Location) int {
	if year > 0 {
		return year
	}
	return now().In(loc).Year()
}
