package handlers

import (
	"github.com/tupyy/taskpool/internal/models"
	"github.com/tupyy/taskpool/internal/store"
)

// StatusProvider reports the state of the run in progress.
type StatusProvider interface {
	Status() models.ExecutorStatus
}

type Handler struct {
	executor StatusProvider
	store    *store.Store
}

// New creates the API handler. st may be nil, in which case the run
// endpoints answer 503.
func New(executor StatusProvider, st *store.Store) *Handler {
	return &Handler{
		executor: executor,
		store:    st,
	}
}
