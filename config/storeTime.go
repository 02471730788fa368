package config

import (
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	storeLocOnce sync.Once
	storeLoc     *time.Location
)

// GetStoreLocation returns the timezone the employee day-window is computed
// in. STORE_TIMEZONE accepts an IANA name ("Asia/Riyadh"); unset or invalid
// falls back to UTC.
func GetStoreLocation() *time.Location {
	storeLocOnce.Do(func() {
		storeLoc = time.UTC
		name := strings.TrimSpace(os.Getenv("STORE_TIMEZONE"))
		if name == "" {
			return
		}
		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Printf("invalid STORE_TIMEZONE %q; falling back to UTC: %v", name, err)
			return
		}
		storeLoc = loc
	})
	return storeLoc
}
