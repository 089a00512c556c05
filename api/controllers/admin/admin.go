package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/agencyops-backend/api/responses"
	"github.com/angelmondragon/agencyops-backend/api/validators"
	"github.com/angelmondragon/agencyops-backend/pkg/db/models"
	"github.com/angelmondragon/agencyops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/agencyops-backend/pkg/errors"
	"github.com/angelmondragon/agencyops-backend/pkg/logger"
)

const (
	// DefaultLimit is the page size when a limit is not provided.
	DefaultLimit = 50
	// MaxLimit caps how many rows a list endpoint returns.
	MaxLimit = 200
)

type subscriptionLister interface {
	ListByStatus(ctx context.Context, status *enums.SubscriptionStatus, limit int) ([]models.Subscription, error)
}

type clientFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

type activityLister interface {
	ListByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]models.ActivityLogEntry, error)
}

type orderLister interface {
	ListByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]models.Order, error)
}

type projectLister interface {
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Project, error)
}

// ClientDetail is the admin view of a client and its purchases.
type ClientDetail struct {
	Client   *models.Client   `json:"client"`
	Orders   []models.Order   `json:"orders"`
	Projects []models.Project `json:"projects"`
}

// Subscriptions lists subscriptions newest first, optionally filtered by the
// status query parameter (active, past_due, cancelled, paused).
func Subscriptions(repo subscriptionLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions repository unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", DefaultLimit, 1, MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.SubscriptionStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseSubscriptionStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
					WithDetails(map[string]any{"field": "status"}))
				return
			}
			status = &parsed
		}

		subs, err := repo.ListByStatus(r.Context(), status, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions"))
			return
		}
		responses.WriteSuccess(w, subs)
	}
}

// ClientActivity returns a client's activity log, newest first.
func ClientActivity(clients clientFinder, activity activityLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if clients == nil || activity == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity repository unavailable"))
			return
		}

		client, ok := loadClient(w, r, clients, logg)
		if !ok {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", DefaultLimit, 1, MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := activity.ListByClient(r.Context(), client.ID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activity"))
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// ClientDetailHandler returns a client with its orders and projects.
func ClientDetailHandler(clients clientFinder, orders orderLister, projects projectLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if clients == nil || orders == nil || projects == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client repositories unavailable"))
			return
		}

		client, ok := loadClient(w, r, clients, logg)
		if !ok {
			return
		}

		orderRows, err := orders.ListByClient(r.Context(), client.ID, MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders"))
			return
		}
		projectRows, err := projects.ListByClient(r.Context(), client.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list projects"))
			return
		}

		responses.WriteSuccess(w, ClientDetail{Client: client, Orders: orderRows, Projects: projectRows})
	}
}

func loadClient(w http.ResponseWriter, r *http.Request, clients clientFinder, logg *logger.Logger) (*models.Client, bool) {
	rawID := strings.TrimSpace(chi.URLParam(r, "clientId"))
	if rawID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "client id is required"))
		return nil, false
	}
	clientID, err := uuid.Parse(rawID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client id"))
		return nil, false
	}

	client, err := clients.FindByID(r.Context(), clientID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client"))
		return nil, false
	}
	if client == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "client not found"))
		return nil, false
	}
	return client, true
}
