// Package msgbox shows notifications in native message boxes. It links the
// platform dialog libraries and is only imported by the windowed application.
package msgbox

import (
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/logger"
	"github.com/Faultbox/forwardfx/internal/notify"
)

// Notifier shows a native error box and logs the same message.
type Notifier struct {
	log *zap.Logger
}

var _ notify.Notifier = (*Notifier)(nil)

// New creates a message box notifier.
func New() *Notifier {
	return &Notifier{log: logger.Named("notify")}
}

// Notify logs the message and blocks on a native error box.
func (n *Notifier) Notify(title, message string) {
	n.log.Error(message, zap.String("title", title))
	dialog.Message("%s", message).Title(title).Error()
}
