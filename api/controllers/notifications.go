package controllers

import (
	"net/http"

	"github.com/platebite/platebite-backend/api/responses"
	"github.com/platebite/platebite-backend/internal/notifications"
	"github.com/platebite/platebite-backend/pkg/logger"
)

// ListNotifications pages through the authenticated user's inbox.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		panic("ListNotifications requires the notification service")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		recipientID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListForRecipient(ctx, recipientID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, notifications.NewNotificationList(page))
	}
}

// MarkNotificationRead marks one notification as read for its recipient.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		panic("MarkNotificationRead requires the notification service")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		recipientID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		notificationID, err := parseUUIDParam(r, "notificationID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.MarkRead(ctx, recipientID, notificationID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}
