package main

import "runtime/pprof"
import "os"
import "os/signal"
import "syscall"

func init() {
	for _, arg := range os.Args {
		if arg == "-pgo" || arg == "--pgo" {
			sigChan := make(chan os.Signal, 1)

			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			// profile into default.pgo until interrupted
			go func() {
				f, err := os.Create("default.pgo")
				if err != nil {
					println(err.Error())
					return
				}
				pprof.StartCPUProfile(f)
				<-sigChan
				pprof.StopCPUProfile()
				f.Close()

				os.Exit(130)
			}()

			return
		}
	}
}
