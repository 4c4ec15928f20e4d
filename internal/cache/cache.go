package cache

import "time"

// Cleaner is implemented by caches whose expired entries can be swept.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs a single cleanup goroutine over any number of registered
// caches so each cache does not need its own timer.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register must be called before StartCleanup; it is not safe to add caches
// while the sweep loop is running.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

func (m *Manager) StartCleanup(interval time.Duration) {
	go m.sweep(interval)
}

func (m *Manager) sweep(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, c := range m.caches {
				c.CleanExpired()
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the sweep loop and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
