package utils

import (
	"fmt"
	"sync/atomic"
	"time"
)

var idSeq uint64

// GenUserID generates a unique user ID from the current UTC nanosecond
// timestamp and an atomic sequence number. The format is
// "user-<timestamp>-<seq>".
func GenUserID() string {
	n := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&idSeq, 1)
	return fmt.Sprintf("user-%d-%d", n, s)
}

// GenPostID generates a unique post ID. The format is
// "post-<timestamp>-<seq>".
func GenPostID() string {
	n := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&idSeq, 1)
	return fmt.Sprintf("post-%d-%d", n, s)
}

// GenCommentID generates a unique comment ID. The format is
// "comment-<timestamp>-<seq>".
func GenCommentID() string {
	n := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&idSeq, 1)
	return fmt.Sprintf("comment-%d-%d", n, s)
}
