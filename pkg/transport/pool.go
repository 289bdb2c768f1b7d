package transport

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Pool shares one Transport between every log sent to the same destination
// with the same preamble.
type Pool struct {
	mu         sync.Mutex
	logger     *log.Entry
	transports map[key]*Transport
}

func NewPool(logger *log.Entry) *Pool {
	return &Pool{
		logger:     logger,
		transports: make(map[key]*Transport),
	}
}

// Get returns the running transport for config, starting it on first use.
func (p *Pool) Get(config Config) *Transport {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := config.key()

	if t, ok := p.transports[k]; ok {
		return t
	}

	t := New(config, p.logger)
	p.transports[k] = t

	return t
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.transports)
}

// CloseAll closes every transport concurrently, so that shutdown takes one
// join timeout rather than one per destination.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	transports := p.transports
	p.transports = make(map[key]*Transport)
	p.mu.Unlock()

	var g errgroup.Group

	for _, t := range transports {
		g.Go(func() error {
			t.Close()
			return nil
		})
	}

	_ = g.Wait()
}
