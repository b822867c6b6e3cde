package api

import (
	"net/http"

	"github.com/rodneyosodo/parfold/coordinator"
	"github.com/rodneyosodo/parfold/pkg/api"
)

var (
	_ api.Response = (*runResponse)(nil)
	_ api.Response = (*listRunResponse)(nil)
)

type runResponse struct {
	coordinator.Summary
	created bool
}

func (r runResponse) Code() int {
	if r.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (r runResponse) Headers() map[string]string {
	if r.created {
		return map[string]string{
			"Location": "/runs/" + r.ID,
		}
	}

	return map[string]string{}
}

func (r runResponse) Empty() bool {
	return false
}

type listRunResponse struct {
	coordinator.SummaryPage
}

func (l listRunResponse) Code() int {
	return http.StatusOK
}

func (l listRunResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listRunResponse) Empty() bool {
	return false
}
