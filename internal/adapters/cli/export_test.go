package cli

// SetDaemonDialer replaces the daemon dialer until the returned func is called
func SetDaemonDialer(dial func(socket string) (LabelClient, error)) func() {
	previous := dialDaemon
	dialDaemon = dial
	return func() { dialDaemon = previous }
}
