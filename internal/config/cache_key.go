package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a candidate's login session.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// SessionViolationTokenKey returns the cache key for a session's violation
// signing token.
func (r *CacheKeyStruct) SessionViolationTokenKey(sessionID string) string {
	return fmt.Sprintf("session:%s:violation_token", sessionID)
}

// SessionMonitorChannel returns the Redis PubSub channel carrying live
// violation events for a session.
func (r *CacheKeyStruct) SessionMonitorChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:monitor", sessionID)
}

var CacheKey = NewCacheKeyStruct()
