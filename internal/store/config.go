package store

// Defaults applied when corresponding StoreConfig fields are unset.
const (
	defaultGlobalDesk = "garden"
)

// StoreConfig encapsulates all tunables for Store construction.
type StoreConfig struct {
	// GlobalDesk names the desk whose buckets underlie every merged
	// view. Defaults to "garden".
	GlobalDesk string
	// DataDir is the badger directory for persistence. Empty selects
	// badger's in-memory mode (nothing survives restart).
	DataDir string
}

// NewWithConfig constructs a Store from StoreConfig, opening (and
// reloading from) the badger database.
func NewWithConfig(cfg StoreConfig) (*Store, error) {
	if cfg.GlobalDesk == "" {
		cfg.GlobalDesk = defaultGlobalDesk
	}
	s := newStore(cfg.GlobalDesk)
	if err := s.openDB(cfg.DataDir); err != nil {
		return nil, err
	}
	if err := s.loadFromDB(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// New constructs an in-memory Store with default configuration;
// intended for tests and ephemeral use.
func New() (*Store, error) {
	return NewWithConfig(StoreConfig{})
}
