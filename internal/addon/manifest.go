package addon

// Manifest describes the addon to clients.
type Manifest struct {
	ID          string    `json:"id"`
	Version     string    `json:"version"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Resources   []string  `json:"resources"`
	Types       []string  `json:"types"`
	Catalogs    []Catalog `json:"catalogs"`
	IDPrefixes  []string  `json:"idPrefixes"`
}

// Catalog is a manifest catalog entry. The addon publishes none.
type Catalog struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

const (
	manifestID      = "org.animefiller"
	manifestVersion = "2.0.0"
	addonName       = "Anime Filler Info"
)

// DefaultManifest returns the published manifest.
func DefaultManifest() Manifest {
	return Manifest{
		ID:          manifestID,
		Version:     manifestVersion,
		Name:        addonName,
		Description: "Automatically detects and marks filler episodes for any anime",
		Resources:   []string{"stream"},
		Types:       []string{"series"},
		Catalogs:    []Catalog{},
		IDPrefixes:  []string{"tt", "kitsu"},
	}
}
