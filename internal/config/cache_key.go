package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ChapterQuestionsKey returns the cache key for a chapter's ordered question set
func (r *CacheKeyStruct) ChapterQuestionsKey(chapterID string) string {
	return fmt.Sprintf("quiz:chapter:%s:questions", chapterID)
}

// ExamKey returns the cache key for an exam definition
func (r *CacheKeyStruct) ExamKey(examID string) string {
	return fmt.Sprintf("quiz:exam:%s", examID)
}

// ExamQuestionsKey returns the cache key for the question set an exam asks
func (r *CacheKeyStruct) ExamQuestionsKey(examID string) string {
	return fmt.Sprintf("quiz:exam:%s:questions", examID)
}

// MonitorChannel returns the Redis PubSub channel carrying live session events
func (r *CacheKeyStruct) MonitorChannel() string {
	return "quiz:monitor"
}

// ExamMonitorChannel returns the Redis PubSub channel for a single exam's session events
func (r *CacheKeyStruct) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("quiz:exam:%s:monitor", examID)
}

var CacheKey = NewCacheKeyStruct()
