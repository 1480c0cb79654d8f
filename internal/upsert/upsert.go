// Package upsert implements the write paths for professionals: the bulk reconciliation that
// creates or updates each item independently, and the single create.
package upsert

import (
	"context"
	"errors"
	"fmt"

	"gitlab.com/dirk.krummacker/professionals-service/internal/logging"
	"gitlab.com/dirk.krummacker/professionals-service/internal/metrics"
	"gitlab.com/dirk.krummacker/professionals-service/internal/model"
	"gitlab.com/dirk.krummacker/professionals-service/internal/store"
	"gitlab.com/dirk.krummacker/professionals-service/internal/validation"
)

// saveFailedMessage is reported for storage errors that are not caused by the item itself.
const saveFailedMessage = "The professional could not be saved."

// Repository is the storage needed by the write paths. *store.Store implements it.
type Repository interface {
	Finder
	Create(ctx context.Context, p *model.Professional) error
	Update(ctx context.Context, p *model.Professional) error
}

var _ Repository = (*store.Store)(nil)

// Reconciler processes bulk upserts.
type Reconciler struct {
	repo Repository
	log  *logging.Logger
}

// NewReconciler creates a Reconciler on the given repository.
func NewReconciler(repo Repository, log *logging.Logger) *Reconciler {
	if log == nil {
		log = logging.Nop()
	}
	return &Reconciler{repo: repo, log: log}
}

// Reconcile processes the items in order and returns one outcome per item with the same index.
// Every item is committed on its own before the next one is looked at, so later items see the
// effects of earlier ones. A failing item never stops the batch.
func (r *Reconciler) Reconcile(ctx context.Context, items []interface{}) []model.Outcome {
	outcomes := make([]model.Outcome, 0, len(items))
	for index, item := range items {
		outcome := r.reconcileItem(ctx, index, item)
		metrics.BulkItemsTotal.WithLabelValues(string(outcome.Status)).Inc()
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (r *Reconciler) reconcileItem(ctx context.Context, index int, item interface{}) model.Outcome {
	n, fieldErrs := validation.ValidateItem(item)
	if fieldErrs != nil {
		r.log.Debug("bulk item rejected", "index", index, "errors", fieldErrs)
		return model.Outcome{Index: index, Status: model.StatusError, Errors: fieldErrs}
	}

	log := r.log.With("index", index, "email", n.Email, "phone", n.Phone)

	existing, err := Match(ctx, r.repo, n)
	if err != nil {
		log.Error("bulk item lookup failed", "error", err)
		return model.Outcome{Index: index, Status: model.StatusError, Errors: FieldErrorsFor(err)}
	}

	var p model.Professional
	status := model.StatusCreated
	if existing != nil {
		p = *existing
		n.ApplyTo(&p)
		status = model.StatusUpdated
	} else {
		p = n.NewProfessional()
	}

	if err := r.commit(ctx, &p, existing != nil); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			log.Info("bulk item conflicts with another professional", "error", err)
		} else {
			log.Error("bulk item could not be saved", "error", err)
		}
		return model.Outcome{Index: index, Status: model.StatusError, Errors: FieldErrorsFor(err)}
	}
	log.Debug("bulk item saved", "status", status, "id", p.Id)
	return model.Outcome{Index: index, Status: status, Professional: &p}
}

// commit re-checks the whole record and writes it.
func (r *Reconciler) commit(ctx context.Context, p *model.Professional, exists bool) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if exists {
		return r.repo.Update(ctx, p)
	}
	return r.repo.Create(ctx, p)
}

// Create validates a single raw item and stores it as a new professional. Both natural keys are
// checked up front so that all conflicts are reported together; a conflict that only shows up
// at commit time is reported the same way. The returned field errors describe problems with the
// item; the returned error is set only for unexpected failures.
func Create(ctx context.Context, repo Repository, raw interface{}) (*model.Professional, model.FieldErrors, error) {
	n, fieldErrs := validation.ValidateItem(raw)
	if fieldErrs != nil {
		return nil, fieldErrs, nil
	}

	conflicts := model.FieldErrors{}
	if n.Email != nil {
		_, lookupErr := repo.FindByEmail(ctx, *n.Email)
		if err := checkFree(model.FieldEmail, lookupErr, conflicts); err != nil {
			return nil, nil, err
		}
	}
	if n.Phone != nil {
		_, lookupErr := repo.FindByPhone(ctx, *n.Phone)
		if err := checkFree(model.FieldPhone, lookupErr, conflicts); err != nil {
			return nil, nil, err
		}
	}
	if !conflicts.Empty() {
		return nil, conflicts, nil
	}

	p := n.NewProfessional()
	if err := p.Validate(); err != nil {
		return nil, FieldErrorsFor(err), nil
	}
	if err := repo.Create(ctx, &p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, FieldErrorsFor(err), nil
		}
		return nil, nil, fmt.Errorf("create professional: %w", err)
	}
	metrics.ProfessionalsCreatedTotal.Inc()
	return &p, nil, nil
}

// checkFree records a conflict for field if the lookup found a professional.
func checkFree(field string, lookupErr error, conflicts model.FieldErrors) error {
	switch {
	case lookupErr == nil:
		conflicts.Add(field, duplicateMessage(field))
		return nil
	case errors.Is(lookupErr, store.ErrNotFound):
		return nil
	}
	return fmt.Errorf("check %s: %w", field, lookupErr)
}

// FieldErrorsFor converts an error from validation or storage into the per-field form that is
// reported to clients.
func FieldErrorsFor(err error) model.FieldErrors {
	var fieldErrs model.FieldErrors
	if errors.As(err, &fieldErrs) {
		return fieldErrs
	}
	errs := model.FieldErrors{}
	var violation *store.UniqueViolationError
	if errors.As(err, &violation) {
		errs.Add(violation.Field, duplicateMessage(violation.Field))
		return errs
	}
	errs.Add(model.FormErrorsKey, saveFailedMessage)
	return errs
}

func duplicateMessage(field string) string {
	if field == model.FormErrorsKey {
		return "A professional with these details already exists."
	}
	return fmt.Sprintf("professional with this %s already exists.", field)
}
