// Command triage runs the inquiry classification and routing core: the
// long-running drain scheduler (serve), a one-shot backlog drain (drain),
// and a debug classify-only entry point (classify).
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
