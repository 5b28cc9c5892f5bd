package service

import (
	"context"

	"go.uber.org/zap"

	"alphabit/internal/client/neynar"
	"alphabit/internal/repository"
)

// NotificationService delivers push notifications rendered from DB-stored
// templates. Delivery is strictly best effort: any failure is logged and
// swallowed so the sync pipeline never blocks on the push provider.
type NotificationService struct {
	Repo   repository.Repository
	Client *neynar.Client
	Config *ConfigStoreService
	Logger *zap.Logger
}

func (s *NotificationService) client(ctx context.Context) *neynar.Client {
	if s.Config == nil {
		return s.Client
	}
	host := s.Config.Get(ctx, KeyNotifierURL, "")
	if host == "" {
		return s.Client
	}
	return s.Client.WithHost(host)
}

// SendTemplated looks up an active template by code and sends it to every
// fid in one provider call. No-op when the provider is unconfigured, the
// template is missing or disabled, or the fid list is empty.
func (s *NotificationService) SendTemplated(ctx context.Context, code string, fids []int64) {
	if s == nil || s.Repo == nil || len(fids) == 0 {
		return
	}
	if s.Client == nil || !s.Client.Configured() {
		return
	}

	tpl, err := s.Repo.GetNotificationTemplateByCode(ctx, code)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("notification template lookup failed",
				zap.String("code", code),
				zap.Error(err),
			)
		}
		return
	}
	if tpl == nil || !tpl.IsActive {
		return
	}

	err = s.client(ctx).SendBatch(ctx, neynar.Notification{
		Title:     tpl.Title,
		Body:      tpl.Body,
		TargetURL: tpl.TargetURL,
	}, fids)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("notification batch send failed",
				zap.String("code", code),
				zap.Int("fids", len(fids)),
				zap.Error(err),
			)
		}
		return
	}
	if s.Logger != nil {
		s.Logger.Info("notification batch sent",
			zap.String("code", code),
			zap.Int("fids", len(fids)),
		)
	}
}
