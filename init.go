package zvec

import (
	"runtime"
	"sync"

	"github.com/zvecdb/zvec/resource"
)

// Process-wide state installed by Init. The index core itself is stateless
// with respect to it: collections capture the controller and logger at
// construction time and hold them as plain dependencies.
var (
	processMu   sync.Mutex
	processCtrl *resource.Controller
	processLog  *Logger
)

// Init installs process-wide defaults: a resource controller bounding
// concurrent index builds to the number of CPUs, and the logger/controller
// from the given options. Calling Init is optional; without it, collections
// run unthrottled with a noop logger. Init is idempotent.
func Init(optFns ...Option) {
	processMu.Lock()
	defer processMu.Unlock()

	o := options{}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	if o.controller == nil {
		o.controller = resource.NewController(resource.Config{
			MaxBuilders: int64(runtime.NumCPU()),
		})
	}
	processCtrl = o.controller
	if o.logger != nil {
		processLog = o.logger
	}
}

// Shutdown tears down the process-wide defaults installed by Init.
// Collections created before Shutdown keep their captured dependencies.
func Shutdown() {
	processMu.Lock()
	defer processMu.Unlock()
	processCtrl = nil
	processLog = nil
}

func processController() *resource.Controller {
	processMu.Lock()
	defer processMu.Unlock()
	return processCtrl
}

func processLogger() *Logger {
	processMu.Lock()
	defer processMu.Unlock()
	if processLog == nil {
		return NoopLogger()
	}
	return processLog
}
