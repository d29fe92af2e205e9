// Package autoload initializes the process logger from LOG_* environment
// variables as a side effect of import.
package autoload

import (
	configx "github.com/tanpawarit/Chative-Customer-Service-Coordination/pkg/config"
	logx "github.com/tanpawarit/Chative-Customer-Service-Coordination/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
