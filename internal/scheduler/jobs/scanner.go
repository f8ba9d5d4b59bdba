package jobs

import (
	"context"
	"time"

	"github.com/dipwatch/dipwatch/internal/alert"
	"github.com/dipwatch/dipwatch/internal/selection"
	"github.com/dipwatch/dipwatch/internal/transport"
	"github.com/dipwatch/dipwatch/internal/user"
	"github.com/dipwatch/dipwatch/pkg/logger"
)

// UserSource lists the members subscribed to an alert band.
type UserSource interface {
	ListActiveByBand(ctx context.Context, band user.Band) ([]user.Member, error)
}

// OpportunityFinder produces scored candidates for one user's thresholds.
type OpportunityFinder interface {
	FindTop(ctx context.Context, prefs *user.Preferences, limit int) ([]*selection.Opportunity, error)
}

// Deduper answers and records same-day alert suppression.
type Deduper interface {
	AlreadySentToday(ctx context.Context, userID int64, ticker string, now time.Time) (bool, error)
	SentToday(ctx context.Context, userID int64, now time.Time) (map[string]bool, error)
	MarkSent(ctx context.Context, userID int64, ticker string, now time.Time)
}

// AlertLog appends durable alert records.
type AlertLog interface {
	Append(ctx context.Context, rec *alert.Record) error
}

// Scanner is the per-user scan-and-send pipeline shared by all band
// jobs. One user's failure never aborts the run for the others.
type Scanner struct {
	users     UserSource
	finder    OpportunityFinder
	dedup     Deduper
	alerts    AlertLog
	messenger transport.Messenger
	composer  *alert.Composer
	logger    *logger.Logger
	now       func() time.Time
}

func NewScanner(
	users UserSource,
	finder OpportunityFinder,
	dedup Deduper,
	alerts AlertLog,
	messenger transport.Messenger,
	composer *alert.Composer,
	log *logger.Logger,
) *Scanner {
	return &Scanner{
		users:     users,
		finder:    finder,
		dedup:     dedup,
		alerts:    alerts,
		messenger: messenger,
		composer:  composer,
		logger:    log,
		now:       time.Now,
	}
}

// Summary reports what one band run did.
type Summary struct {
	UsersScanned int `json:"users_scanned"`
	AlertsSent   int `json:"alerts_sent"`
	Suppressed   int `json:"suppressed"`
	Failures     int `json:"failures"`
}

// ScanSingle runs a single-ticker band: for each member the single
// best opportunity is judged, and only that one. A top pick that
// misses the drop gate or was already alerted today leaves the band
// silent; runners-up are never promoted in its place.
func (s *Scanner) ScanSingle(ctx context.Context, band user.Band, minDrop float64, compose func(*selection.Opportunity) string) (Summary, error) {
	members, err := s.users.ListActiveByBand(ctx, band)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{UsersScanned: len(members)}
	for i := range members {
		member := &members[i]
		log := s.logger.WithFields(map[string]interface{}{
			"band":    string(band),
			"user_id": member.User.ID,
		})

		opps, err := s.finder.FindTop(ctx, &member.Preferences, 1)
		if err != nil {
			summary.Failures++
			log.WithError(err).Error("scan failed for user")
			continue
		}
		if len(opps) == 0 {
			log.Debug("no opportunities for user")
			continue
		}

		top := opps[0]
		if minDrop > 0 && top.DropFromHigh < minDrop {
			log.WithField("ticker", top.Ticker()).Debug("top opportunity below drop threshold")
			continue
		}

		already, err := s.dedup.AlreadySentToday(ctx, member.User.ID, top.Ticker(), s.now())
		if err != nil {
			summary.Failures++
			log.WithError(err).Error("dedup check failed")
			continue
		}
		if already {
			summary.Suppressed++
			log.WithField("ticker", top.Ticker()).Debug("already alerted today")
			continue
		}

		if err := s.deliver(ctx, member, compose(top), []*selection.Opportunity{top}); err != nil {
			summary.Failures++
			log.WithError(err).WithField("ticker", top.Ticker()).Error("alert delivery failed")
			continue
		}
		summary.AlertsSent++
	}

	return summary, nil
}

// ScanDigest runs a multi-ticker band: the top opportunities are sent
// as one digest message. Tickers already alerted today do not shrink
// the digest, but when every ticker was already alerted the run is a
// re-trigger and the user is skipped.
func (s *Scanner) ScanDigest(ctx context.Context, band user.Band, limit int, compose func([]*selection.Opportunity) string) (Summary, error) {
	members, err := s.users.ListActiveByBand(ctx, band)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{UsersScanned: len(members)}
	for i := range members {
		member := &members[i]
		log := s.logger.WithFields(map[string]interface{}{
			"band":    string(band),
			"user_id": member.User.ID,
		})

		opps, err := s.finder.FindTop(ctx, &member.Preferences, limit)
		if err != nil {
			summary.Failures++
			log.WithError(err).Error("scan failed for user")
			continue
		}
		if len(opps) == 0 {
			log.Debug("no opportunities for user")
			continue
		}

		sent, err := s.dedup.SentToday(ctx, member.User.ID, s.now())
		if err != nil {
			// Without the day's history every ticker counts as fresh;
			// a duplicate digest beats a silently dropped one.
			log.WithError(err).Warn("dedup lookup failed")
			sent = nil
		}
		fresh := 0
		for _, opp := range opps {
			if !sent[opp.Ticker()] {
				fresh++
			}
		}
		if fresh == 0 {
			summary.Suppressed++
			log.Debug("digest already sent today")
			continue
		}

		if err := s.deliver(ctx, member, compose(opps), opps); err != nil {
			summary.Failures++
			log.WithError(err).Error("digest delivery failed")
			continue
		}
		summary.AlertsSent++
	}

	return summary, nil
}

// deliver sends the body and, only after the transport accepts it,
// writes one record per included ticker. A failed record write leaves
// the message delivered; the redis marker still suppresses repeats for
// the rest of the day.
func (s *Scanner) deliver(ctx context.Context, member *user.Member, body string, opps []*selection.Opportunity) error {
	messageID, err := s.messenger.Send(ctx, member.User.PhoneNumber, body)
	if err != nil {
		return err
	}

	now := s.now()
	for _, opp := range opps {
		rec := &alert.Record{
			UserID:  member.User.ID,
			Ticker:  opp.Ticker(),
			Score:   opp.Score,
			Message: body,
			SentAt:  now,
		}
		if err := s.alerts.Append(ctx, rec); err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"user_id":    member.User.ID,
				"ticker":     opp.Ticker(),
				"message_id": messageID,
			}).Error("failed to record sent alert")
		}
		s.dedup.MarkSent(ctx, member.User.ID, opp.Ticker(), now)
	}

	return nil
}
