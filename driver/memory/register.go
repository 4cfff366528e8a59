package memory

import (
	"strconv"

	"github.com/gobeaver/bucketkit"
)

func init() {
	bucketkit.RegisterProviderType("memory", func(cfg *bucketkit.ProviderConfig) (bucketkit.Backend, error) { //nolint:errcheck // name is valid at init time
		c := Config{}
		if v := cfg.Native["pageSize"]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, bucketkit.ErrInvalidParams
			}
			c.PageSize = n
		}
		return New(c), nil
	})
}
