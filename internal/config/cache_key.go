package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey holds the JTI of a user's current login.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// ExamSessionKey holds the JSON snapshot of a user's in-progress exam session.
func (r *CacheKeyStruct) ExamSessionKey(examID string, userID int) string {
	return fmt.Sprintf("user:%d:exam:%s:session", userID, examID)
}

// ExamFinishLockKey guards the single transition out of IN_PROGRESS.
func (r *CacheKeyStruct) ExamFinishLockKey(examID string, userID int) string {
	return fmt.Sprintf("user:%d:exam:%s:finishing", userID, examID)
}

// ExamEventsChannel is the PubSub channel pushing server-side session events to the stream.
func (r *CacheKeyStruct) ExamEventsChannel(examID string, userID int) string {
	return fmt.Sprintf("user:%d:exam:%s:events", userID, examID)
}

// TimedSessionsKey is the sorted set of timed sessions scored by their deadline (unix milliseconds).
func (r *CacheKeyStruct) TimedSessionsKey() string {
	return "exam:timed_sessions"
}

// TimedSessionMember encodes a user/exam pair as a sorted-set member.
func (r *CacheKeyStruct) TimedSessionMember(examID string, userID int) string {
	return fmt.Sprintf("%d:%s", userID, examID)
}

// CaseAnswersKey holds a user's ephemeral free-text answers for a case.
func (r *CacheKeyStruct) CaseAnswersKey(caseID string, userID int) string {
	return fmt.Sprintf("user:%d:case:%s:answers", userID, caseID)
}

// RateLimitKey is a fixed-window counter for a client on a route group.
func (r *CacheKeyStruct) RateLimitKey(scope, client string, window int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, client, window)
}

var CacheKey = NewCacheKeyStruct()
