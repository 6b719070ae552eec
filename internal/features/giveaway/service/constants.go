package service

import "time"

const (
	MaxConcurrentProcessing = 10              // giveaways closed in parallel per tick
	ProcessingTimeout       = 30 * time.Second // budget for one close including the lock wait
	CheckInterval           = 5 * time.Second
	MaxRetries              = 3 // attempts for the expired-list read
	RetryDelay              = 200 * time.Millisecond
	AnnounceTimeout         = 10 * time.Second // one chat API call, made after the lock is released
)
