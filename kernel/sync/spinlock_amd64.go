package sync

// archPause issues a PAUSE instruction so a busy-waiting hyperthread
// sibling doesn't starve the lock holder's memory bandwidth. Implemented
// in spinlock_amd64.s.
func archPause()
