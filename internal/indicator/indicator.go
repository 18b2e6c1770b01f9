// Package indicator declares the status-indicator collaborator. Rendering
// (tray icon, status line) is the embedding shell's business; the core only
// pushes status values.
package indicator

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lhartmann/worklog/internal/model"
)

// Indicator receives the derived tracking status whenever it changes.
type Indicator interface {
	Set(status model.TrackingStatus)
}

// LogIndicator logs status changes. It is the default indicator when the
// shell provides no rendering surface.
type LogIndicator struct {
	mtx  sync.Mutex
	last model.TrackingStatus
	set  bool
}

func (i *LogIndicator) Set(status model.TrackingStatus) {
	i.mtx.Lock()
	defer i.mtx.Unlock()

	if i.set && status == i.last {
		return
	}
	i.last = status
	i.set = true
	log.Info().Str("status", status.String()).Msg("tracking status changed")
}

// Func adapts a function to the Indicator interface.
type Func func(status model.TrackingStatus)

func (f Func) Set(status model.TrackingStatus) { f(status) }
