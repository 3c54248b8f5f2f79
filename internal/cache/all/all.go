// Package all registers every built-in cache backend with the cache
// factory. Import it for side effects:
//
//	import _ "ares/internal/cache/all"
//
// after which cache.Open accepts the kinds "file", "sqlite", "mssql" and
// "postgres".
package all

import (
	_ "ares/internal/cache/pgstore"
	_ "ares/internal/cache/sqlstore"
)
