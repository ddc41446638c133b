package handler

import (
	"net/http"

	"family-tree-go/internal/config"
	invitedomain "family-tree-go/internal/domain/invite"
	memberdomain "family-tree-go/internal/domain/member"
	requestdomain "family-tree-go/internal/domain/request"
	userdomain "family-tree-go/internal/domain/user"
	"family-tree-go/pkg/logger"
)

type Handlers struct {
	Members  *memberdomain.Service
	Requests *requestdomain.Service
	Invites  *invitedomain.Service
	Users    *userdomain.Service

	auth config.AuthConfig
	log  logger.Logger
}

func New(
	members *memberdomain.Service,
	requests *requestdomain.Service,
	invites *invitedomain.Service,
	users *userdomain.Service,
	auth config.AuthConfig,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Members:  members,
		Requests: requests,
		Invites:  invites,
		Users:    users,
		auth:     auth,
		log:      log,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
