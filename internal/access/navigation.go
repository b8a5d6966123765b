package access

import "lawfort/config/features"

const (
	LayoutAdmin = "admin"
	LayoutUser  = "user"
)

type NavItem struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Path    string `json:"path"`
	Section string `json:"section"`
	Feature string `json:"-"`
	Roles   []Role `json:"-"`
}

type Menu struct {
	Layout string    `json:"layout"`
	Items  []NavItem `json:"items"`
}

var (
	anyone   []Role
	members  = []Role{RoleUser, RoleEditor, RoleAdmin}
	managers = []Role{RoleEditor, RoleAdmin}
	admins   = []Role{RoleAdmin}
)

// navItems is ordered as rendered: main links, career, account, then the
// management area.
var navItems = []NavItem{
	{Key: "home", Label: "Home", Path: "/", Section: "main", Roles: anyone},
	{Key: "blogs", Label: "Blog Posts", Path: "/blogs", Section: "main", Feature: features.BlogPosts, Roles: anyone},
	{Key: "notes", Label: "Notes", Path: "/notes", Section: "main", Feature: features.Notes, Roles: anyone},
	{Key: "research", Label: "Research Papers", Path: "/research", Section: "main", Feature: features.ResearchPapers, Roles: anyone},
	{Key: "courses", Label: "Courses", Path: "/courses", Section: "main", Feature: features.Courses, Roles: anyone},
	{Key: "search", Label: "Search", Path: "/search", Section: "main", Feature: features.GlobalSearch, Roles: anyone},

	{Key: "jobs", Label: "Jobs", Path: "/jobs", Section: "career", Feature: features.Jobs, Roles: anyone},
	{Key: "internships", Label: "Internships", Path: "/internships", Section: "career", Feature: features.Internships, Roles: anyone},
	{Key: "applications", Label: "My Applications", Path: "/applications", Section: "career", Feature: features.Applications, Roles: members},
	{Key: "submit_research", Label: "Submit Research Paper", Path: "/research-papers/submit", Section: "career", Feature: features.ResearchPapers, Roles: members},

	{Key: "library", Label: "Personal Library", Path: "/library", Section: "account", Feature: features.PersonalLibrary, Roles: members},
	{Key: "dashboard", Label: "Dashboard", Path: "/dashboard", Section: "account", Feature: features.Dashboard, Roles: []Role{RoleUser}},
	{Key: "editor_dashboard", Label: "Editor Dashboard", Path: "/editor-dashboard", Section: "account", Feature: features.Dashboard, Roles: managers},
	{Key: "notifications", Label: "Notifications", Path: "/notifications", Section: "account", Feature: features.Notifications, Roles: members},
	{Key: "profile", Label: "Profile", Path: "/profile", Section: "account", Feature: features.Profile, Roles: members},
	{Key: "settings", Label: "Settings", Path: "/settings", Section: "account", Feature: features.Settings, Roles: members},

	{Key: "create_blog", Label: "Write Blog Post", Path: "/blogs/create", Section: "admin", Feature: features.BlogPosts, Roles: managers},
	{Key: "create_note", Label: "Create Note", Path: "/notes/create", Section: "admin", Feature: features.Notes, Roles: managers},
	{Key: "create_research", Label: "Publish Research Paper", Path: "/research/create", Section: "admin", Feature: features.ResearchPapers, Roles: managers},
	{Key: "create_course", Label: "Create Course", Path: "/courses/create", Section: "admin", Feature: features.Courses, Roles: managers},
	{Key: "create_job", Label: "Post Job", Path: "/jobs/create", Section: "admin", Feature: features.Jobs, Roles: managers},
	{Key: "create_internship", Label: "Post Internship", Path: "/internships/create", Section: "admin", Feature: features.Internships, Roles: managers},
	{Key: "manage_applications", Label: "Manage Applications", Path: "/manage-applications", Section: "admin", Feature: features.ManageApplications, Roles: managers},
	{Key: "research_reviews", Label: "Research Reviews", Path: "/admin/research-reviews", Section: "admin", Feature: features.ResearchPapers, Roles: managers},
	{Key: "admin", Label: "Admin Panel", Path: "/admin", Section: "admin", Roles: admins},
}

// Visible applies the navigation rule to one item: its feature flag must
// be on and, when the item is role-gated, the caller's role must be listed.
func (n NavItem) Visible(p *Principal, flags features.Flags) bool {
	if n.Feature != "" && !flags.Enabled(n.Feature) {
		return false
	}
	if len(n.Roles) == 0 {
		return true
	}
	if p == nil {
		return false
	}
	for _, r := range n.Roles {
		if r == p.Role {
			return true
		}
	}
	return false
}

// LayoutFor picks the management layout for editors and admins.
func LayoutFor(p *Principal) string {
	if p != nil && p.Role.Manager() {
		return LayoutAdmin
	}
	return LayoutUser
}

// Navigation returns the items p may see, in declaration order.
func Navigation(p *Principal, flags features.Flags) Menu {
	items := make([]NavItem, 0, len(navItems))
	for _, item := range navItems {
		if item.Visible(p, flags) {
			items = append(items, item)
		}
	}
	return Menu{Layout: LayoutFor(p), Items: items}
}

// AllNavItems exposes the full table for callers that need to reason about
// hidden entries.
func AllNavItems() []NavItem {
	out := make([]NavItem, len(navItems))
	copy(out, navItems)
	return out
}
