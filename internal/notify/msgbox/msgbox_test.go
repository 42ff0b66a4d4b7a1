package msgbox

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/forwardfx/internal/notify"
)

func TestNew(t *testing.T) {
	var n notify.Notifier = New()
	assert.NotNil(t, n)
	assert.NotNil(t, New().log)
}
