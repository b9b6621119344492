package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a trainee's login session.
func (r *CacheKeyStruct) UserSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// LiveAnswersKey returns the cache key mirroring a trainee's in-flight
// exam answers. Used only so a reconnecting client can restore its view;
// the in-memory session remains the source of truth.
func (r *CacheKeyStruct) LiveAnswersKey(userID, courseID string) string {
	return fmt.Sprintf("user:%s:course:%s:live_answers", userID, courseID)
}

var CacheKey = NewCacheKeyStruct()
