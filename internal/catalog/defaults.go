package catalog

// DefaultAliases maps the storefront's friendly SKUs to canonical catalog
// keys. Keys and values are already normalized (lowercase, no variant token)
// so Normalize stays idempotent across the alias hop.
var DefaultAliases = map[string]string{
	"vein":   "vein-001",
	"shroud": "shroud-002",
	"husk":   "husk-003",
	"relic":  "relic-004",
}
