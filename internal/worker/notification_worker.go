package worker

import (
	"context"

	"github.com/civicdesk/grievance-service/internal/service"
)

// StartNotificationWorker starts the pool and registers notification handlers that
// deliver through it. The pool drains when ctx is cancelled and Stop is called.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, pool *Pool) {
	if notificationService == nil {
		return
	}
	if pool != nil {
		pool.Start(ctx)
		notificationService.SetQueue(pool)
	}
	notificationService.RegisterHandlers()
}
