package remote

import (
	"context"
	"net/http"

	"github.com/jwalitptl/admin-dashboard/internal/model"
)

func (r *notificationRepository) Save(ctx context.Context, notification *model.Notification) error {
	return r.client.do(ctx, "save_notification", http.MethodPost,
		r.client.resolve(r.client.paths.SaveNotification, ""), notification, nil)
}

func (g *smsGateway) Send(ctx context.Context, req *model.SMSRequest) error {
	return g.client.do(ctx, "send_sms", http.MethodPost,
		g.client.resolve(g.client.paths.SendSMS, ""), req, nil)
}
