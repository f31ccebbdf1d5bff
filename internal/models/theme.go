package models

// Theme is the process-wide appearance setting, persisted apart from the
// library in its own config file.
type Theme struct {
	IsDarkMode bool `json:"is_dark_mode"`
}

// DefaultTheme is used when no theme file exists or it cannot be parsed.
func DefaultTheme() Theme {
	return Theme{IsDarkMode: true}
}

// Name returns "dark" or "light".
func (t Theme) Name() string {
	if t.IsDarkMode {
		return "dark"
	}
	return "light"
}
