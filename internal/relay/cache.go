package relay

import (
	lru "github.com/hashicorp/golang-lru"
)

// LastMessages remembers the last text seen per chat. It is only consulted
// for logging and may forget entries at any time.
type LastMessages struct {
	cache *lru.Cache
}

// NewLastMessages returns a cache holding up to size chats. A size of zero
// or less disables it.
func NewLastMessages(size int) *LastMessages {
	if size <= 0 {
		return &LastMessages{}
	}
	cache, err := lru.New(size)
	if err != nil {
		return &LastMessages{}
	}
	return &LastMessages{cache: cache}
}

// Remember stores text for chatID and reports whether it repeats the previous one.
func (l *LastMessages) Remember(chatID int64, text string) bool {
	if l == nil || l.cache == nil {
		return false
	}
	prev, ok := l.cache.Get(chatID)
	l.cache.Add(chatID, text)
	return ok && prev == text
}

// last returns the previous text for chatID.
func (l *LastMessages) last(chatID int64) (string, bool) {
	if l == nil || l.cache == nil {
		return "", false
	}
	v, ok := l.cache.Get(chatID)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
