package api

import (
	"github.com/rodneyosodo/parfold"
	"github.com/rodneyosodo/parfold/coordinator"
	"github.com/rodneyosodo/parfold/pkg/api"
)

type runReq struct {
	Mode   coordinator.Mode `json:"mode"`
	Config parfold.Config   `json:"config"`
}

func (r *runReq) validate() error {
	switch r.Mode {
	case coordinator.ModeCrossValidation, coordinator.ModeSimulation, coordinator.ModeSingle:
		return nil
	default:
		return coordinator.ErrUnknownMode
	}
}

type entityReq struct {
	id string
}

func (e *entityReq) validate() error {
	if e.id == "" {
		return api.ErrMissingID
	}

	return nil
}

type listEntityReq struct {
	offset, limit uint64
}

func (e *listEntityReq) validate() error {
	if e.limit > api.MaxLimitSize {
		return api.ErrLimitSize
	}

	return nil
}
