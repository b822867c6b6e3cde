package api

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
	"github.com/rodneyosodo/parfold/coordinator"
	"github.com/rodneyosodo/parfold/pkg/api"
	"github.com/rodneyosodo/parfold/pkg/storage"
)

func startRunEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(runReq)
		if !ok {
			return runResponse{}, errors.Join(api.ErrValidation, storage.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return runResponse{}, errors.Join(api.ErrValidation, err)
		}

		var (
			summary coordinator.Summary
			err     error
		)
		switch req.Mode {
		case coordinator.ModeCrossValidation:
			summary, err = svc.RunCrossValidation(ctx, req.Config)
		case coordinator.ModeSimulation:
			summary, err = svc.RunSimulation(ctx, req.Config)
		case coordinator.ModeSingle:
			summary, err = svc.RunSingle(ctx, req.Config)
		}
		if err != nil {
			return runResponse{}, err
		}

		return runResponse{
			Summary: summary,
			created: true,
		}, nil
	}
}

func getRunEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return runResponse{}, errors.Join(api.ErrValidation, storage.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return runResponse{}, errors.Join(api.ErrValidation, err)
		}

		summary, err := svc.GetRun(ctx, req.id)
		if err != nil {
			return runResponse{}, err
		}

		return runResponse{
			Summary: summary,
		}, nil
	}
}

func listRunsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listRunResponse{}, errors.Join(api.ErrValidation, storage.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listRunResponse{}, errors.Join(api.ErrValidation, err)
		}

		runs, err := svc.ListRuns(ctx, req.offset, req.limit)
		if err != nil {
			return listRunResponse{}, err
		}

		return listRunResponse{
			SummaryPage: runs,
		}, nil
	}
}
