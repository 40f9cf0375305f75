package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// CourseCreditsKey returns the cache key for a course's credit weight
func (r *CacheKeyStruct) CourseCreditsKey(courseID int) string {
	return fmt.Sprintf("course:%d:credits", courseID)
}

// PricingConfigKey returns the cache key for the pricing config of a
// student type within a school year
func (r *CacheKeyStruct) PricingConfigKey(schoolYear, studentType string) string {
	return fmt.Sprintf("pricing:%s:%s", schoolYear, studentType)
}

// ScoreCooldownKey returns the cooldown marker key for direct score updates
func (r *CacheKeyStruct) ScoreCooldownKey(actorEmail string, assessmentID string) string {
	return fmt.Sprintf("cooldown:%s:assessment:%s", actorEmail, assessmentID)
}

// ExamMonitorChannel returns the Redis PubSub channel name for an exam
// session monitor stream
func (r *CacheKeyStruct) ExamMonitorChannel(courseID int) string {
	return fmt.Sprintf("course:%d:exam_monitor", courseID)
}

var CacheKey = NewCacheKeyStruct()
