package core

import (
	"errors"
)

var (
	ErrSwapchainOutOfDate = errors.New("swapchain out of date, recreating")
	ErrWindowMinimized    = errors.New("window has no drawable area")
	ErrQueueFull          = errors.New("queue is full")
	ErrQueueEmpty         = errors.New("queue is empty")
)
