package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ASSETGRID_TEST_MODE") == "" {
			_ = os.Setenv("ASSETGRID_TEST_MODE", "1")
		}
	})
}
