package notify

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/observability/logging"
	"news-notifier/internal/observability/metrics"
	"news-notifier/internal/repository"
)

// FanoutResult counts per-user outcomes of one fan-out.
type FanoutResult struct {
	Users   int
	Sent    int
	Failed  int
	Skipped int
	// Emailed is the number of notifications flagged as emailed.
	Emailed int
}

// Fanout sends one digest per user and flags the included notifications.
type Fanout struct {
	Preferences   repository.PreferenceRepository
	Notifications repository.NotificationRepository
	Mailer        Mailer
}

func NewFanout(prefs repository.PreferenceRepository, notifications repository.NotificationRepository, mailer Mailer) *Fanout {
	return &Fanout{Preferences: prefs, Notifications: notifications, Mailer: mailer}
}

type sendOptions struct {
	keywords map[int64]string
}

// SendOption customizes a SendNotificationsToUsers call.
type SendOption func(*sendOptions)

// WithKeywords supplies keyword text by watch id for digest labels.
func WithKeywords(keywords map[int64]string) SendOption {
	return func(o *sendOptions) { o.keywords = keywords }
}

// SendNotificationsToUsers groups notifications by user and emails each user a
// single digest. Failures are logged per user and never returned; a user whose
// send fails, or whose mailer has delivery disabled, keeps is_emailed = false.
func (f *Fanout) SendNotificationsToUsers(
	ctx context.Context,
	notifications []*entity.Notification,
	articles map[int64]*entity.Article,
	opts ...SendOption,
) FanoutResult {
	logger := logging.FromContext(ctx)
	var o sendOptions
	for _, opt := range opts {
		opt(&o)
	}

	byUser := make(map[int64][]*entity.Notification)
	for _, n := range notifications {
		byUser[n.UserID] = append(byUser[n.UserID], n)
	}
	userIDs := make([]int64, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	slices.Sort(userIDs)

	result := FanoutResult{Users: len(userIDs)}
	if len(userIDs) == 0 {
		return result
	}

	recipients, err := f.Preferences.GetRecipients(ctx, userIDs)
	if err != nil {
		logger.Error("failed to resolve recipients, skipping email fan-out",
			slog.Int("users", len(userIDs)),
			slog.String("error", logging.SanitizeError(err)))
		result.Skipped = len(userIDs)
		metrics.RecordEmails(result.Sent, result.Failed, result.Skipped)
		return result
	}

	for _, userID := range userIDs {
		recipient, ok := recipients[userID]
		if !ok || recipient.Email == "" {
			logger.Warn("skipping digest", slog.Int64("user_id", userID), slog.String("reason", ErrNoRecipient.Error()))
			result.Skipped++
			continue
		}

		digest := buildDigest(recipient, byUser[userID], articles, o.keywords)
		if len(digest.Entries) == 0 {
			logger.Warn("skipping digest", slog.Int64("user_id", userID), slog.String("reason", ErrEmptyDigest.Error()))
			result.Skipped++
			continue
		}

		err := f.send(ctx, digest)
		if errors.Is(err, ErrDeliveryDisabled) {
			logger.Debug("skipping digest", slog.Int64("user_id", userID), slog.String("reason", err.Error()))
			result.Skipped++
			continue
		}
		if err != nil {
			logger.Error("failed to send digest",
				slog.Int64("user_id", userID),
				slog.Int("entries", len(digest.Entries)),
				slog.String("error", logging.SanitizeError(err)))
			result.Failed++
			continue
		}
		result.Sent++

		ids := digest.NotificationIDs()
		if err := f.Notifications.MarkEmailed(ctx, ids); err != nil {
			logger.Error("failed to mark notifications emailed",
				slog.Int64("user_id", userID),
				slog.Any("notification_ids", ids),
				slog.String("error", logging.SanitizeError(err)))
			continue
		}
		result.Emailed += len(ids)
	}

	metrics.RecordEmails(result.Sent, result.Failed, result.Skipped)
	logger.Info("email fan-out completed",
		slog.Int("users", result.Users),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped))
	return result
}

func (f *Fanout) send(ctx context.Context, digest Digest) error {
	email, err := digest.Render()
	if err != nil {
		return err
	}
	return f.Mailer.Send(ctx, email)
}

// buildDigest drops notifications whose article is unknown.
func buildDigest(
	recipient entity.Recipient,
	notifications []*entity.Notification,
	articles map[int64]*entity.Article,
	keywords map[int64]string,
) Digest {
	d := Digest{Recipient: recipient}
	for _, n := range notifications {
		if n.ArticleID == nil {
			continue
		}
		a, ok := articles[*n.ArticleID]
		if !ok || a == nil {
			continue
		}
		entry := DigestEntry{NotificationID: n.ID, Title: a.Title, URL: a.URL}
		if n.CategoryID != nil {
			entry.Category = a.CategoryName(*n.CategoryID)
		}
		if n.KeywordID != nil {
			entry.Keyword = keywords[*n.KeywordID]
		}
		d.Entries = append(d.Entries, entry)
	}
	return d
}
