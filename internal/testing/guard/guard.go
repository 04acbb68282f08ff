package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ARBOR_TEST_MODE") == "" {
			_ = os.Setenv("ARBOR_TEST_MODE", "1")
		}
	})
}
