package logger

import "sync"

// Components with a registered logger.
const (
	ComponentComputer = "computer"
	ComponentRun      = "run"
)

// Components lists every registered component.
var Components = []string{ComponentComputer, ComponentRun}

var components = struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}{loggers: make(map[string]*Logger)}

// RegisterComponents derives one logger per entry of Components from base,
// replacing earlier registrations. A nil base clears them.
func RegisterComponents(base *Logger) {
	components.mu.Lock()
	defer components.mu.Unlock()
	components.loggers = make(map[string]*Logger, len(Components))
	if base == nil {
		return
	}
	for _, name := range Components {
		components.loggers[name] = base.WithComponent(name)
	}
}

// Register overrides the logger of one component.
func Register(name string, l *Logger) {
	components.mu.Lock()
	defer components.mu.Unlock()
	components.loggers[name] = l
}

// Get returns the logger of a component. Unregistered names get the global
// logger tagged with name.
func Get(name string) *Logger {
	components.mu.RLock()
	l, ok := components.loggers[name]
	components.mu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}
