package views

// SiteConfig holds site-wide settings every page needs.
type SiteConfig struct {
	Name string
	URL  string
}

// CreateForm is the create page's view of the form: the three field values
// and whether each action button is enabled.
type CreateForm struct {
	Name        string
	Prompt      string
	Photo       string
	CanGenerate bool
	CanShare    bool
}
