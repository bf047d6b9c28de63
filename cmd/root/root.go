package root

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "portkeeper",
	Short: "Tunnel keeper for game server instances",
	Long:  `portkeeper exposes local game server ports to the internet through bore, cloudflared, ngrok or playit tunnel agents, and supervises the agents it spawns`,
}
