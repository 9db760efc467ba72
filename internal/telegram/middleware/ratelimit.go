package middleware

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	warningInterval   = 30 * time.Second
	inactiveThreshold = time.Hour
)

type userLimit struct {
	limiter       *rate.Limiter
	lastSeen      time.Time
	lastWarningAt time.Time
}

// RateLimiterMiddleware drops updates from users that exceed their token bucket
type RateLimiterMiddleware struct {
	mu     sync.Mutex
	limits map[int64]*userLimit

	limit  rate.Limit
	burst  int
	now    func() time.Time
	warn   string
	logger *zap.Logger
	sender Sender
}

func NewRateLimiterMiddleware(requestsPerMinute, burst int, warning string, logger *zap.Logger, sender Sender) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		limits: make(map[int64]*userLimit),
		limit:  rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:  burst,
		now:    time.Now,
		warn:   warning,
		logger: logger,
		sender: sender,
	}
}

func (rl *RateLimiterMiddleware) Handle(update tgbotapi.Update, next Next) {
	userID, chatID, ok := updateIDs(update)
	if !ok {
		next(update)
		return
	}

	allowed, warn := rl.allow(userID)
	if !allowed {
		rl.logger.Warn("rate limit exceeded",
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", chatID),
		)
		if warn {
			rl.sendWarning(chatID)
		}
		return
	}

	next(update)
}

// allow reports whether the user may proceed and, if not, whether to warn them.
func (rl *RateLimiterMiddleware) allow(userID int64) (bool, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.evictInactive(now)

	ul, ok := rl.limits[userID]
	if !ok {
		ul = &userLimit{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limits[userID] = ul
	}
	ul.lastSeen = now

	if ul.limiter.AllowN(now, 1) {
		return true, false
	}
	if now.Sub(ul.lastWarningAt) < warningInterval {
		return false, false
	}
	ul.lastWarningAt = now
	return false, true
}

// evictInactive must be called with rl.mu held.
func (rl *RateLimiterMiddleware) evictInactive(now time.Time) {
	for userID, ul := range rl.limits {
		if now.Sub(ul.lastSeen) > inactiveThreshold {
			delete(rl.limits, userID)
		}
	}
}

func (rl *RateLimiterMiddleware) sendWarning(chatID int64) {
	if _, err := rl.sender.Send(tgbotapi.NewMessage(chatID, rl.warn)); err != nil {
		rl.logger.Error("failed to send rate limit warning",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}
