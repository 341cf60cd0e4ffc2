// file:cas/pkg/x_db/init.go
package x_db

import (
	"errors"
	"sync"

	"github.com/rskv-p/cas/pkg/x_log"
)

var (
	globalMu  sync.Mutex
	globalDAO *DAO
)

// Init opens the process-wide DAO. Calling it again replaces the old one.
func Init(cfg Config) error {
	dao, err := Open(cfg, x_log.New("db"))
	if err != nil {
		return err
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalDAO != nil {
		_ = globalDAO.Close()
	}
	globalDAO = dao
	return nil
}

// Global returns the DAO installed by Init.
func Global() (*DAO, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalDAO == nil {
		return nil, errors.New("x_db: not initialized")
	}
	return globalDAO, nil
}

// Shutdown closes the process-wide DAO.
func Shutdown() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalDAO == nil {
		return nil
	}
	err := globalDAO.Close()
	globalDAO = nil
	return err
}
