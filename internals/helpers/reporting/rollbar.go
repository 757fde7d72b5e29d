package reporting

import (
	"log"
	"os"
	"sync/atomic"

	"github.com/rollbar/rollbar-go"
)

var enabled atomic.Bool

type Config struct {
	Token       string
	Environment string
	CodeVersion string
}

// Init turns on Rollbar reporting when a token is configured.
func Init(conf Config) {
	if conf.Token == "" {
		log.Println("[INFO] ROLLBAR_TOKEN not set, error reporting disabled")
		rollbar.SetEnabled(false)
		return
	}
	host, _ := os.Hostname()
	rollbar.SetToken(conf.Token)
	rollbar.SetEnvironment(conf.Environment)
	rollbar.SetServerHost(host)
	rollbar.SetCodeVersion(conf.CodeVersion)
	rollbar.SetEnabled(true)
	enabled.Store(true)
	log.Printf("[INFO] rollbar enabled env=%s", conf.Environment)
}

// Error reports a server-side failure with request metadata.
func Error(err error, fields map[string]interface{}) {
	if err == nil || !enabled.Load() {
		return
	}
	if fields == nil {
		rollbar.Error(err)
		return
	}
	rollbar.Error(err, fields)
}

func Close() {
	if enabled.Load() {
		rollbar.Close()
	}
}
