package config

import "runtime"

// defaultWorkers sizes the metadata fetch pool at five per CPU, capped at 50.
func defaultWorkers() int {
	return min(runtime.NumCPU()*5, 50)
}
