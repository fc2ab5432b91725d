// Package embedded provides access to embedded catalog data files.
package embedded

import _ "embed"

// ModelCatalogData contains the embedded model catalog YAML data.
//
//go:embed models.yaml
var ModelCatalogData []byte

// LanguageCatalogData contains the embedded target-language catalog YAML data.
//
//go:embed languages.yaml
var LanguageCatalogData []byte
