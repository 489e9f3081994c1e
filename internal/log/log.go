package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvLevel names the environment variable holding the log level.
const EnvLevel = "LOADCACHE_LOG"

// InitLogger sets up apex with a CustomHandler on w and a level from LOADCACHE_LOG.
// Unknown levels fall back to warn.
func InitLogger(w io.Writer) *log.Logger {
	level, err := log.ParseLevel(strings.ToLower(os.Getenv(EnvLevel)))
	if err != nil {
		level = log.WarnLevel
	}
	logger := &log.Logger{Handler: NewHandler(w), Level: level}
	log.Log = logger
	return logger
}

// CustomHandler writes one line per entry: time, level initial, message and sorted fields.
type CustomHandler struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

func NewHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{out: w, now: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", h.now().Format("2006-01-02 15:04:05"), strings.ToUpper(e.Level.String()), e.Message)

	names := e.Fields.Names()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}
