// Package reconcile recomputes and persists the VAT decision of every stored customer.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prior-it/vatengine/config"
	"github.com/prior-it/vatengine/core"
	"github.com/prior-it/vatengine/vat"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// Report summarises a single reconciliation run.
type Report struct {
	RunID     string
	Processed int
	Failed    int
	Changed   int
	ByBasis   map[core.Basis]int
	Errors    []error
	Duration  time.Duration
}

type Reconciler struct {
	customers core.CustomerService
	validator core.TaxIDValidator
	logger    *slog.Logger
	cfg       config.ReconcileConfig
}

func New(customers core.CustomerService, cfg config.ReconcileConfig) *Reconciler {
	return &Reconciler{
		customers: customers,
		logger:    slog.Default(),
		cfg:       cfg,
	}
}

// WithValidator enables best-effort tax id validation before each determination.
// Without a validator the stored validation flag of each customer is used.
func (r *Reconciler) WithValidator(validator core.TaxIDValidator) *Reconciler {
	r.validator = validator
	return r
}

func (r *Reconciler) WithLogger(logger *slog.Logger) *Reconciler {
	r.logger = logger
	return r
}

// Run determines and persists the VAT decision of every customer.
// A failing customer is logged and counted but does not stop the run; only failing to list the
// customers or a cancelled context aborts it.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:   uuid.NewString(),
		ByBasis: map[core.Basis]int{},
	}
	logger := r.logger.With("run_id", report.RunID)

	customers, err := r.customers.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot list customers: %w", err)
	}
	logger.Info("Starting VAT reconciliation", "customers", len(customers), "dry_run", r.cfg.DryRun)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.cfg.Workers))

	for _, customer := range customers {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			decision, changed, err := r.reconcile(gctx, logger, customer)

			mu.Lock()
			defer mu.Unlock()
			report.Processed++
			if err != nil {
				report.Failed++
				report.Errors = append(report.Errors, err)
				logger.Error("Could not reconcile customer", "customer_id", customer.ID, "error", err)
				return nil
			}
			report.ByBasis[decision.Basis]++
			if changed {
				report.Changed++
			}
			return nil
		})
	}

	_ = g.Wait()
	report.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("reconciliation %s interrupted: %w", report.RunID, err)
	}

	logger.Info(
		"Finished VAT reconciliation",
		"processed", report.Processed,
		"failed", report.Failed,
		"changed", report.Changed,
		"duration", report.Duration,
	)
	return report, nil
}

func (r *Reconciler) reconcile(
	ctx context.Context,
	logger *slog.Logger,
	customer core.Customer,
) (core.VATDecision, bool, error) {
	validated := r.validate(ctx, logger, customer)
	decision := vat.Calculate(customer.TaxProfile(validated))
	changed := customer.VAT == nil || *customer.VAT != decision

	if r.cfg.DryRun || !changed {
		return decision, changed, nil
	}

	backoff := retry.WithMaxRetries(r.cfg.Retries, retry.NewExponential(max(time.Millisecond, r.cfg.RetryBackoff())))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.customers.SaveVATDecision(ctx, customer.ID, decision)
		if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrInvalidInput) {
			return err
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		return decision, changed, fmt.Errorf("cannot save VAT decision for customer %v: %w", customer.ID, err)
	}
	return decision, changed, nil
}

// validate asks the validator about the customer's tax id. Any failure degrades to "not
// validated" so that a registry outage never blocks a determination.
func (r *Reconciler) validate(ctx context.Context, logger *slog.Logger, customer core.Customer) bool {
	if r.validator == nil {
		return customer.TaxIDValidated
	}
	raw := core.Value(customer.TaxID)
	if raw == "" {
		return false
	}
	id, err := core.ParseTaxID(raw)
	if err != nil {
		logger.Debug("Customer has an invalid tax id", "customer_id", customer.ID, "error", err)
		return false
	}
	valid, err := r.validator.ValidateTaxID(ctx, id)
	if err != nil {
		logger.Warn("Tax id validation failed, continuing as not validated", "customer_id", customer.ID, "error", err)
		return false
	}
	return valid
}
