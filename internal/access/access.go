// Package access decides what a user may see and do: role permissions, the
// owner-or-admin rule on content, navigation visibility and the apply
// button state.
package access

type Role string

const (
	RoleUser   Role = "User"
	RoleEditor Role = "Editor"
	RoleAdmin  Role = "Admin"
)

// ParseRole accepts the role names stored in the users table.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleEditor, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// RoleID is the numeric id older clients still key on.
func (r Role) ID() int {
	switch r {
	case RoleAdmin:
		return 1
	case RoleEditor:
		return 2
	default:
		return 3
	}
}

// Manager reports whether the role manages content (Editor or Admin).
func (r Role) Manager() bool {
	return r == RoleEditor || r == RoleAdmin
}

// Principal is the authenticated caller.
type Principal struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

type Permission string

const (
	ContentCreateOwn  Permission = "content_create_own"
	ContentCreateAll  Permission = "content_create_all"
	ContentReadPublic Permission = "content_read_public"
	ContentUpdateOwn  Permission = "content_update_own"
	ContentUpdateAll  Permission = "content_update_all"
	ContentDeleteOwn  Permission = "content_delete_own"
	ContentDeleteAll  Permission = "content_delete_all"
	ContentPublishOwn Permission = "content_publish_own"
	ContentModerate   Permission = "content_moderate"
	MetricsViewOwn    Permission = "metrics_view_own"
	MetricsViewAll    Permission = "metrics_view_all"
	ResearchReview    Permission = "research_review"
	ResearchSubmit    Permission = "research_submit"
	JobCreate         Permission = "job_create"
	JobApply          Permission = "job_apply"
	InternshipApply   Permission = "internship_apply"
	BlogComment       Permission = "blog_comment"
	ContentSave       Permission = "content_save"
	ContentCopy       Permission = "content_copy"
	UserManage        Permission = "user_manage"
)

var rolePermissions = map[Role][]Permission{
	RoleEditor: {
		ContentCreateOwn, ContentReadPublic, ContentUpdateOwn, ContentDeleteOwn,
		ContentPublishOwn, MetricsViewOwn, ResearchReview, JobCreate, BlogComment,
		ContentSave, ContentCopy, ResearchSubmit, JobApply, InternshipApply,
	},
	RoleUser: {
		ContentReadPublic, BlogComment, JobApply, InternshipApply,
		ContentSave, ContentCopy, ResearchSubmit,
	},
}

func isOwnPermission(p Permission) bool {
	n := len(p)
	return n > 4 && p[n-4:] == "_own"
}

// HasPermission reports whether p holds perm. Admins hold everything. For
// "_own" permissions a non-zero ownerID must match the caller.
func HasPermission(p *Principal, perm Permission, ownerID int64) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleAdmin {
		return true
	}
	for _, granted := range rolePermissions[p.Role] {
		if granted != perm {
			continue
		}
		if isOwnPermission(perm) && ownerID != 0 {
			return ownerID == p.ID
		}
		return true
	}
	return false
}

// CanModify is the owner-or-admin rule gating edit and delete on every
// content type: admins may touch anything, editors only their own items.
func CanModify(p *Principal, ownerID int64) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case RoleAdmin:
		return true
	case RoleEditor:
		return ownerID != 0 && ownerID == p.ID
	}
	return false
}

// ApplyState is what the apply control on a posting should show.
type ApplyState string

const (
	ApplyAvailable ApplyState = "apply"
	ApplyDone      ApplyState = "applied"
	ApplyLogin     ApplyState = "login_to_apply"
	ApplyHidden    ApplyState = "hidden"
)

func ApplyStateFor(p *Principal, perm Permission, hasApplied bool) ApplyState {
	switch {
	case p == nil:
		return ApplyLogin
	case !HasPermission(p, perm, 0):
		return ApplyHidden
	case hasApplied:
		return ApplyDone
	default:
		return ApplyAvailable
	}
}
