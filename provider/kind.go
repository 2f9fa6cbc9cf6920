package provider

// Kind names a backend family.
type Kind string

const (
	KindMemory    Kind = "memory"
	KindRistretto Kind = "ristretto"
	KindBigCache  Kind = "bigcache"
	KindRedis     Kind = "redis"
	KindSQLite    Kind = "sqlite"
	KindTiered    Kind = "tiered" // a tiercache.Cache used as a tier
)

var registry = map[Kind]struct{}{
	KindMemory:    {},
	KindRistretto: {},
	KindBigCache:  {},
	KindRedis:     {},
	KindSQLite:    {},
	KindTiered:    {},
}

// Known reports whether k is a registered backend family.
func Known(k Kind) bool {
	_, ok := registry[k]
	return ok
}

// KindOf returns the kind of p, or "" if p does not implement Kinder.
func KindOf(p Provider) Kind {
	if k, ok := p.(Kinder); ok {
		return k.Kind()
	}
	return ""
}

// Kinds returns every registered kind.
func Kinds() []Kind {
	return []Kind{KindMemory, KindRistretto, KindBigCache, KindRedis, KindSQLite, KindTiered}
}
