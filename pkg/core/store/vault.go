package store

import (
	"context"
	"errors"
)

// Vault writes to a primary repository and mirrors into a local one; reads
// try the primary first. Either side may be nil.
type Vault struct {
	primary  ReportRepository
	fallback ReportRepository
}

var _ ReportRepository = (*Vault)(nil)

func NewVault(primary, fallback ReportRepository) *Vault {
	return &Vault{primary: primary, fallback: fallback}
}

func (v *Vault) repos() []ReportRepository {
	var out []ReportRepository
	for _, r := range []ReportRepository{v.primary, v.fallback} {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (v *Vault) Save(ctx context.Context, rec *Record) error {
	prepare(rec)
	for _, r := range v.repos() {
		if err := r.Save(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (v *Vault) Get(ctx context.Context, id string) (*Record, error) {
	var lastErr error = ErrNotFound
	for _, r := range v.repos() {
		rec, err := r.Get(ctx, id)
		if err == nil {
			return rec, nil
		}
		if errors.Is(err, ErrInvalidID) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (v *Vault) List(ctx context.Context, limit int) ([]Record, error) {
	repos := v.repos()
	if len(repos) == 0 {
		return nil, nil
	}
	return repos[0].List(ctx, limit)
}
