package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// SerializeMiddleware returns a middleware that runs updates from the
// same chat one at a time, in arrival order. Updates from different
// chats proceed concurrently.
//
// Handlers must not re-enter the bot pipeline for the same chat while
// holding the turn, or they will deadlock.
func SerializeMiddleware() tele.MiddlewareFunc {
	var (
		mu    sync.Mutex
		locks = make(map[int64]*sync.Mutex)
	)
	lockFor := func(chatID int64) *sync.Mutex {
		mu.Lock()
		defer mu.Unlock()
		l, ok := locks[chatID]
		if !ok {
			l = &sync.Mutex{}
			locks[chatID] = l
		}
		return l
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil {
				return next(c)
			}
			l := lockFor(chat.ID)
			l.Lock()
			defer l.Unlock()
			return next(c)
		}
	}
}
