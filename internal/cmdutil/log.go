// internal/cmdutil/log.go
package cmdutil

import (
	"fmt"
	"io"
)

// Warner prints "WARN:" lines unless Quiet is set.
type Warner struct {
	Dst   io.Writer
	Quiet bool
}

func (w Warner) Warnf(format string, a ...any) {
	if w.Quiet || w.Dst == nil {
		return
	}
	_, _ = fmt.Fprintf(w.Dst, "WARN: "+format+"\n", a...)
}
