package cmd

import (
	_ "portkeeper/cmd/agent"
	_ "portkeeper/cmd/health"
	_ "portkeeper/cmd/root"
	_ "portkeeper/cmd/server"
	_ "portkeeper/cmd/tunnel"
)
