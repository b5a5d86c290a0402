package tunnel

import (
	"time"

	"golang.org/x/crypto/ssh"
)

const keepaliveRequest = "keepalive@openssh.com"

// keepalive probes the gateway every interval.  A failed probe closes
// the client, which makes monitor mark the tunnel dead so the next dial
// reconnects.
func (t *SSHTunnel) keepalive(client *ssh.Client, interval time.Duration, stop <-chan struct{}) {
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-stop:
			return
		case <-tick.C:
			// Servers commonly answer unknown global requests with a
			// failure reply; only a transport error means the gateway
			// is gone.
			if _, _, err := client.SendRequest(keepaliveRequest, true, nil); err != nil {
				t.logger.Warn("SSH keepalive failed: %v", err)
				client.Close()
				return
			}
			t.logger.Debug("SSH keepalive OK")
		}
	}
}
