/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic.
	Flags are only registered here, the binary calls flag.Parse() in main so
	that test binaries keep their own flags.
*/

package flag

import (
	"flag"
)

const (
	APIServer = "feedsim_api"
)

var (
	ServiceName    = flag.String("service", APIServer, "service name reported to logs and traces")
	AppSettingPath = flag.String("app_setting_path", "cmd/server/config.yaml", "path to the server app setting")
)
