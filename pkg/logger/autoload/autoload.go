// Package autoload initializes the global logger on import.
//
//	import _ "github.com/avelarsol/concierge/pkg/logger/autoload"
package autoload

import (
	"github.com/kelseyhightower/envconfig"

	logx "github.com/avelarsol/concierge/pkg/logger"
)

func init() {
	conf := *logx.DefaultConfig
	// Missing LOG_* vars fall back to defaults; never fail startup over logging.
	_ = envconfig.Process("LOG", &conf)
	logx.Init(conf)
}
