// Package features holds the toggles that switch whole content verticals
// on or off across navigation and routes.
package features

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	ResearchPapers     = "research_papers"
	Courses            = "courses"
	Jobs               = "jobs"
	Internships        = "internships"
	Applications       = "applications"
	ManageApplications = "manage_applications"
	BlogPosts          = "blog_posts"
	Notes              = "notes"
	PersonalLibrary    = "personal_library"
	Dashboard          = "dashboard"
	Profile            = "profile"
	Settings           = "settings"
	Notifications      = "notifications"
	GlobalSearch       = "global_search"
)

type Flags map[string]bool

// Defaults mirrors the shipped configuration: the career and research
// verticals are off until launched.
func Defaults() Flags {
	return Flags{
		ResearchPapers:     false,
		Courses:            false,
		Jobs:               false,
		Internships:        false,
		Applications:       false,
		ManageApplications: false,
		BlogPosts:          true,
		Notes:              true,
		PersonalLibrary:    true,
		Dashboard:          true,
		Profile:            true,
		Settings:           true,
		Notifications:      true,
		GlobalSearch:       true,
	}
}

// Load returns the defaults overridden by the YAML file at path. An empty
// path yields the defaults.
func Load(path string) (Flags, error) {
	flags := Defaults()
	if path == "" {
		return flags, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature file: %w", err)
	}
	return flags.Merge(data)
}

// Merge applies YAML overrides (a flat name: bool map) to a copy of f.
func (f Flags) Merge(data []byte) (Flags, error) {
	var overrides map[string]bool
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse feature file: %w", err)
	}
	out := make(Flags, len(f))
	for k, v := range f {
		out[k] = v
	}
	for name, on := range overrides {
		if _, known := out[name]; !known {
			return nil, fmt.Errorf("unknown feature %q", name)
		}
		out[name] = on
	}
	return out, nil
}

// Enabled reports whether name is switched on. Unknown names are off.
func (f Flags) Enabled(name string) bool {
	return f[name]
}
